// Package predict turns a context snapshot into a stored prediction record.
//
// The Orchestrator owns the single-flight gate shared by manual and proactive
// requests: at most one inference round trip runs at a time, and a request
// that arrives while one is running fails immediately with types.ErrBusy.
// Display copies of records live in Slots and are kept in step with the
// ledger by the FeedbackApplier.
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"lumera/internal/types"
)

// MoodSource is the read side of the mood ledger the orchestrator needs.
type MoodSource interface {
	Recent(n int) []types.MoodEntry
}

// PredictionStore is the subset of the prediction ledger used here.
type PredictionStore interface {
	Append(ctx context.Context, rec types.PredictionRecord) error
	RecentWithEmotionVote(n int) []types.PredictionRecord
	RecentWithSuggestionVote(n int) []types.PredictionRecord
}

// Observer is told about new records and feedback changes. Implementations
// must not block for long and must absorb their own failures.
type Observer interface {
	PredictionCreated(ctx context.Context, rec types.PredictionRecord)
	FeedbackApplied(ctx context.Context, rec types.PredictionRecord)
}

// MetricsRecorder receives one observation per Request.
type MetricsRecorder interface {
	RecordPrediction(ctx context.Context, kind types.PredictionKind, outcome string, elapsed time.Duration)
}

// OrchestratorConfig holds the dependencies for an Orchestrator.
type OrchestratorConfig struct {
	Moods       MoodSource
	Predictions PredictionStore
	Inference   types.InferenceService
	Observer    Observer        // optional
	Metrics     MetricsRecorder // optional
	Clock       types.Clock
	// NewID generates record ids. Defaults to UUIDv7.
	NewID  func() (string, error)
	Logger *slog.Logger
}

// Orchestrator runs prediction requests one at a time.
type Orchestrator struct {
	moods       MoodSource
	predictions PredictionStore
	inference   types.InferenceService
	observer    Observer
	metrics     MetricsRecorder
	clock       types.Clock
	newID       func() (string, error)
	logger      *slog.Logger

	gate     *semaphore.Weighted
	inFlight atomic.Bool
}

// NewOrchestrator creates an Orchestrator with the given configuration.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	newID := cfg.NewID
	if newID == nil {
		newID = newUUIDv7
	}
	return &Orchestrator{
		moods:       cfg.Moods,
		predictions: cfg.Predictions,
		inference:   cfg.Inference,
		observer:    cfg.Observer,
		metrics:     cfg.Metrics,
		clock:       clock,
		newID:       newID,
		logger:      logger,
		gate:        semaphore.NewWeighted(1),
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Busy reports whether a request is in flight.
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

// deliveryTimeout bounds metrics and observer delivery after a request.
const deliveryTimeout = 10 * time.Second

// Request predicts the user's emotion for snap, stores the result, and
// notifies observers. It returns types.ErrBusy without side effects when
// another request holds the gate.
//
// Cancelling ctx does not abort the inference calls. The gate is released as
// soon as they finish, before metrics and observers are notified.
func (o *Orchestrator) Request(ctx context.Context, snap types.ContextSnapshot, kind types.PredictionKind) (types.PredictionRecord, error) {
	return o.RequestOnAcquire(ctx, snap, kind, nil)
}

// RequestOnAcquire is Request with a hook that runs once the gate is held and
// before inference starts. The hook is not called when the request is busy.
func (o *Orchestrator) RequestOnAcquire(ctx context.Context, snap types.ContextSnapshot, kind types.PredictionKind, acquired func()) (types.PredictionRecord, error) {
	if !o.gate.TryAcquire(1) {
		o.record(ctx, kind, types.OutcomeBusy, 0)
		return types.PredictionRecord{}, types.ErrBusy
	}

	ctx = context.WithoutCancel(ctx)
	start := o.clock.Now()
	rec, err := o.runHeld(ctx, snap, kind, acquired)
	elapsed := o.clock.Now().Sub(start)

	dctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	if err != nil {
		o.record(dctx, kind, types.OutcomeFailure, elapsed)
		return types.PredictionRecord{}, err
	}
	o.record(dctx, kind, types.OutcomeSuccess, elapsed)

	if o.observer != nil {
		o.observer.PredictionCreated(dctx, rec.Clone())
	}
	return rec, nil
}

// runHeld runs one prediction with the gate held and releases it on return.
func (o *Orchestrator) runHeld(ctx context.Context, snap types.ContextSnapshot, kind types.PredictionKind, acquired func()) (types.PredictionRecord, error) {
	o.inFlight.Store(true)
	defer func() {
		o.inFlight.Store(false)
		o.gate.Release(1)
	}()
	if acquired != nil {
		acquired()
	}
	return o.run(ctx, snap, kind)
}

func (o *Orchestrator) run(ctx context.Context, snap types.ContextSnapshot, kind types.PredictionKind) (types.PredictionRecord, error) {
	moods := MoodDigest(o.moods.Recent(types.MoodDigestLimit))
	votes := EmotionFeedbackDigest(o.predictions.RecentWithEmotionVote(types.FeedbackDigestLimit))

	est, err := o.inference.PredictEmotion(ctx, snap, moods, votes)
	if err != nil {
		o.logger.ErrorContext(ctx, "emotion prediction failed", "kind", kind, "error", err)
		return types.PredictionRecord{}, types.NewAppError(types.ErrCodeUpstreamInference,
			types.ErrPredictionFailed.Message, err)
	}
	if !est.PredictedEmotion.Valid() {
		o.logger.ErrorContext(ctx, "inference returned unknown emotion",
			"kind", kind, "emotion", string(est.PredictedEmotion))
		return types.PredictionRecord{}, types.NewAppErrorWithDetails(types.ErrCodeUpstreamInference,
			types.ErrPredictionFailed.Message, nil,
			map[string]any{"emotion": string(est.PredictedEmotion)})
	}

	pred := types.Prediction{
		PredictedEmotion: est.PredictedEmotion,
		Probability:      est.Probability,
		Reasoning:        est.Reasoning,
	}
	if est.PredictedEmotion.IsChallenging() {
		suggestion, grounding := o.coping(ctx, est.PredictedEmotion, snap)
		pred.Suggestion = &suggestion
		pred.Grounding = grounding
	}

	id, err := o.newID()
	if err != nil {
		return types.PredictionRecord{}, types.NewAppError(types.ErrCodeInternalUnexpected, "generate prediction id", err)
	}
	rec := types.PredictionRecord{
		ID:          id,
		Kind:        kind,
		Prediction:  pred,
		TimestampMs: o.clock.Now().UnixMilli(),
	}
	if err := o.predictions.Append(ctx, rec); err != nil {
		return types.PredictionRecord{}, fmt.Errorf("store prediction: %w", err)
	}

	o.logger.InfoContext(ctx, "prediction recorded",
		"prediction_id", rec.ID,
		"kind", kind,
		"emotion", string(pred.PredictedEmotion),
		"probability", pred.Probability,
	)
	return rec, nil
}

// coping asks for a suggestion, falling back to a fixed one on failure.
func (o *Orchestrator) coping(ctx context.Context, emotion types.Emotion, snap types.ContextSnapshot) (string, []types.GroundingLink) {
	history := SuggestionFeedbackDigest(o.predictions.RecentWithSuggestionVote(types.FeedbackDigestLimit))

	advice, err := o.inference.SuggestCoping(ctx, emotion, snap, history)
	if err != nil {
		o.logger.WarnContext(ctx, "coping suggestion failed, using fallback",
			"emotion", string(emotion), "error", err)
		return types.FallbackSuggestion, nil
	}
	suggestion := strings.TrimSpace(advice.Suggestion)
	if suggestion == "" {
		return types.FallbackSuggestion, advice.Grounding
	}
	return suggestion, advice.Grounding
}

func (o *Orchestrator) record(ctx context.Context, kind types.PredictionKind, outcome string, elapsed time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordPrediction(ctx, kind, outcome, elapsed)
	}
}
