package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lumera/internal/geo"
	"lumera/internal/types"
)

// MoodHistory is the read side of the mood ledger the policy consults.
type MoodHistory interface {
	Len() int
	Within(point types.Coordinates, radiusMeters float64) []types.MoodEntry
}

// Predictor runs a prediction through the shared single-flight gate.
type Predictor interface {
	Busy() bool
	Request(ctx context.Context, snap types.ContextSnapshot, kind types.PredictionKind) (types.PredictionRecord, error)
}

// AlertSlot holds the live proactive alert.
type AlertSlot interface {
	HasLiveAlert() bool
	SetLiveAlert(rec types.PredictionRecord)
}

// PolicyConfig holds the dependencies and thresholds for a TriggerPolicy.
// Zero thresholds take the package defaults.
type PolicyConfig struct {
	Moods     MoodHistory
	Predictor Predictor
	Alerts    AlertSlot
	Location  types.LocationProvider
	Weather   types.WeatherProvider
	Snapshots types.SnapshotFactory
	Clock     types.Clock

	SignificantLogCount     int
	SignificantRadiusMeters float64
	DebounceWindow          time.Duration

	Logger *slog.Logger
}

// TriggerPolicy decides whether the current location warrants a proactive
// prediction. It remembers where and when it last fired so that lingering in
// one place does not fire repeatedly.
type TriggerPolicy struct {
	moods     MoodHistory
	predictor Predictor
	alerts    AlertSlot
	location  types.LocationProvider
	weather   types.WeatherProvider
	snapshots types.SnapshotFactory
	clock     types.Clock

	minLogs  int
	radius   float64
	debounce time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	lastPoint   *types.Coordinates
	lastTrigger time.Time
}

// NewTriggerPolicy creates a TriggerPolicy with the given configuration.
func NewTriggerPolicy(cfg PolicyConfig) *TriggerPolicy {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	p := &TriggerPolicy{
		moods:     cfg.Moods,
		predictor: cfg.Predictor,
		alerts:    cfg.Alerts,
		location:  cfg.Location,
		weather:   cfg.Weather,
		snapshots: cfg.Snapshots,
		clock:     clock,
		minLogs:   cfg.SignificantLogCount,
		radius:    cfg.SignificantRadiusMeters,
		debounce:  cfg.DebounceWindow,
		logger:    logger,
	}
	if p.minLogs <= 0 {
		p.minLogs = DefaultSignificantLogCount
	}
	if p.radius <= 0 {
		p.radius = DefaultSignificantRadiusMeters
	}
	if p.debounce <= 0 {
		p.debounce = DefaultDebounceWindow
	}
	return p
}

// Evaluate runs one decision. The returned record is non-nil only when the
// decision is DecisionTriggered.
func (p *TriggerPolicy) Evaluate(ctx context.Context) (Decision, *types.PredictionRecord) {
	switch {
	case p.alerts.HasLiveAlert():
		return DecisionSkippedLiveAlert, nil
	case p.predictor.Busy():
		return DecisionSkippedBusy, nil
	case p.moods.Len() < p.minLogs:
		return DecisionSkippedHistory, nil
	}

	current, err := p.location.Current(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "proactive check: location unavailable", "error", err)
		return DecisionSkippedLocation, nil
	}

	if p.debounced(current) {
		return DecisionSkippedDebounce, nil
	}

	nearby := len(p.moods.Within(current, p.radius))
	if nearby < p.minLogs {
		return DecisionSkippedNotSignificant, nil
	}

	p.logger.InfoContext(ctx, "significant location detected",
		"nearby_logs", nearby,
		"latitude", current.Latitude,
		"longitude", current.Longitude,
	)

	weather, err := p.weather.ForLocation(ctx, current)
	if err != nil {
		p.logger.WarnContext(ctx, "weather unavailable, using default", "error", err)
		weather = types.DefaultWeather
	}
	snap := p.snapshots.Build(current, weather)

	rec, err := p.predictor.Request(ctx, snap, types.KindProactive)
	if err != nil {
		p.logger.ErrorContext(ctx, "proactive prediction failed", "error", err)
		return DecisionFailedPrediction, nil
	}

	p.alerts.SetLiveAlert(rec)
	p.mu.Lock()
	pt := current
	p.lastPoint = &pt
	p.lastTrigger = p.clock.Now()
	p.mu.Unlock()

	return DecisionTriggered, &rec
}

// debounced reports whether current is close to the last trigger point and
// the debounce window has not yet elapsed.
func (p *TriggerPolicy) debounced(current types.Coordinates) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastPoint == nil {
		return false
	}
	return geo.DistanceMeters(*p.lastPoint, current) < p.radius &&
		p.clock.Now().Sub(p.lastTrigger) < p.debounce
}
