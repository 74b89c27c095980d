// Package engine is the facade the HTTP layer drives. It owns the current
// context snapshot and combines the ledgers, the orchestrator, and the
// display slots into the user-facing operations.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"lumera/internal/ledger"
	"lumera/internal/predict"
	"lumera/internal/types"
)

// DefaultMinManualHistory is the number of logged moods required before a
// manual prediction is allowed.
const DefaultMinManualHistory = 3

// Config holds the collaborators of an Engine.
type Config struct {
	Moods        *ledger.MoodLedger
	Predictions  *ledger.PredictionLedger
	Orchestrator *predict.Orchestrator
	Feedback     *predict.FeedbackApplier
	Slots        *predict.Slots
	Location     types.LocationProvider
	Weather      types.WeatherProvider
	Snapshots    types.SnapshotFactory

	MinManualHistory int
	// NewID generates mood entry ids. Defaults to UUIDv7.
	NewID  func() (string, error)
	Logger *slog.Logger
}

// Engine exposes the mood tracking and prediction operations.
type Engine struct {
	moods        *ledger.MoodLedger
	predictions  *ledger.PredictionLedger
	orchestrator *predict.Orchestrator
	feedback     *predict.FeedbackApplier
	slots        *predict.Slots
	location     types.LocationProvider
	weather      types.WeatherProvider
	snapshots    types.SnapshotFactory
	minHistory   int
	newID        func() (string, error)
	logger       *slog.Logger

	mu      sync.RWMutex
	current *types.ContextSnapshot
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minHistory := cfg.MinManualHistory
	if minHistory <= 0 {
		minHistory = DefaultMinManualHistory
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}
	}
	return &Engine{
		moods:        cfg.Moods,
		predictions:  cfg.Predictions,
		orchestrator: cfg.Orchestrator,
		feedback:     cfg.Feedback,
		slots:        cfg.Slots,
		location:     cfg.Location,
		weather:      cfg.Weather,
		snapshots:    cfg.Snapshots,
		minHistory:   minHistory,
		newID:        newID,
		logger:       logger,
	}
}

// RefreshContext reads the current location and weather and stores the
// result as the current context. A location failure leaves the previous
// context untouched; a weather failure substitutes types.DefaultWeather.
func (e *Engine) RefreshContext(ctx context.Context) (types.ContextSnapshot, error) {
	coords, err := e.location.Current(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "context refresh: location unavailable", "error", err)
		return types.ContextSnapshot{}, types.NewAppError(types.ErrCodeUpstreamLocation, types.ErrLocationUnavailable.Message, err)
	}

	weather, err := e.weather.ForLocation(ctx, coords)
	if err != nil {
		e.logger.WarnContext(ctx, "context refresh: weather unavailable, using default", "error", err)
		weather = types.DefaultWeather
	}

	snap := e.snapshots.Build(coords, weather)
	e.mu.Lock()
	e.current = &snap
	e.mu.Unlock()
	return snap, nil
}

// CurrentContext returns the last refreshed context, if any.
func (e *Engine) CurrentContext() (types.ContextSnapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return types.ContextSnapshot{}, false
	}
	return *e.current, true
}

// now rebuilds the current context with the present time. Location and
// weather are reused from the last refresh.
func (e *Engine) now() (types.ContextSnapshot, error) {
	cur, ok := e.CurrentContext()
	if !ok {
		return types.ContextSnapshot{}, types.ErrContextUnavailable
	}
	return e.snapshots.Build(cur.Coordinates, cur.Weather), nil
}

// LogMood appends a mood entry tagged with the current context. The note is
// trimmed and dropped when blank. A successful log clears the manual result.
func (e *Engine) LogMood(ctx context.Context, emotion types.Emotion, note string) (types.MoodEntry, error) {
	if !emotion.Valid() {
		return types.MoodEntry{}, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidEmotion,
			"unknown emotion", nil, map[string]any{"emotion": string(emotion)})
	}
	snap, err := e.now()
	if err != nil {
		return types.MoodEntry{}, err
	}
	id, err := e.newID()
	if err != nil {
		return types.MoodEntry{}, types.NewAppError(types.ErrCodeInternalUnexpected, "generate mood id", err)
	}

	entry := types.MoodEntry{
		ContextSnapshot: snap,
		ID:              id,
		Emotion:         emotion,
		Note:            types.NormalizeNote(&note),
	}
	if err := e.moods.Append(ctx, entry); err != nil {
		return types.MoodEntry{}, err
	}
	e.slots.ClearManualResult()

	e.logger.InfoContext(ctx, "mood logged", "mood_id", id, "emotion", emotion, "has_note", entry.Note != nil)
	return entry, nil
}

// RequestManualPrediction predicts for the current context and shows the
// result in the manual slot. Preconditions are checked before anything is
// written: a missing context, too little history, or a prediction already in
// flight each fail without side effects.
func (e *Engine) RequestManualPrediction(ctx context.Context) (types.PredictionRecord, error) {
	snap, err := e.now()
	if err != nil {
		return types.PredictionRecord{}, err
	}
	if n := e.moods.Len(); n < e.minHistory {
		return types.PredictionRecord{}, types.ErrNotEnoughHistory.WithDetails(map[string]any{
			"required": e.minHistory,
			"logged":   n,
		})
	}

	rec, err := e.orchestrator.RequestOnAcquire(ctx, snap, types.KindManual, e.slots.ClearManualResult)
	if err != nil {
		return types.PredictionRecord{}, err
	}
	e.slots.SetManualResult(rec)
	return rec, nil
}

// SubmitFeedback records a vote on a prediction. An invalid type/value pair
// is rejected before anything changes; an unknown id returns applied=false.
func (e *Engine) SubmitFeedback(ctx context.Context, id, feedbackType, value string) (bool, error) {
	vote, err := types.ParseFeedbackVote(feedbackType, value)
	if err != nil {
		return false, err
	}
	return e.feedback.Apply(ctx, id, vote)
}

// MoodHistory returns logged moods, newest first, narrowed by filter.
func (e *Engine) MoodHistory(filter types.MoodFilter) []types.MoodEntry {
	return e.moods.Filter(filter)
}

// MoodFrequency counts logged moods per emotion.
func (e *Engine) MoodFrequency() map[types.Emotion]int {
	return e.moods.Frequency()
}

// PredictionHistory returns predictions, newest first. An empty kind returns
// all of them.
func (e *Engine) PredictionHistory(kind types.PredictionKind) []types.PredictionRecord {
	if kind == "" {
		return e.predictions.All()
	}
	return e.predictions.ByKind(kind)
}

// Prediction returns one prediction by id.
func (e *Engine) Prediction(id string) (types.PredictionRecord, error) {
	return e.predictions.ByID(id)
}

// LiveAlert returns the proactive alert currently shown, if any.
func (e *Engine) LiveAlert() (types.PredictionRecord, bool) {
	return e.slots.LiveAlert()
}

// DismissAlert clears the live alert so the policy may fire again.
func (e *Engine) DismissAlert() bool {
	return e.slots.DismissAlert()
}

// ManualResult returns the result of the last manual prediction, if it is
// still shown.
func (e *Engine) ManualResult() (types.PredictionRecord, bool) {
	return e.slots.ManualResult()
}

// Busy reports whether a prediction is in flight.
func (e *Engine) Busy() bool {
	return e.orchestrator.Busy()
}
