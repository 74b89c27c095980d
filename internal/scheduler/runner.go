package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lumera/internal/types"
)

// Evaluator is satisfied by TriggerPolicy.
type Evaluator interface {
	Evaluate(ctx context.Context) (Decision, *types.PredictionRecord)
}

// TickRecorder receives the decision of every tick.
type TickRecorder interface {
	RecordTick(ctx context.Context, decision string)
}

// RunnerConfig holds the configuration for a ProactiveRunner.
type RunnerConfig struct {
	Policy   Evaluator
	Interval time.Duration
	Metrics  TickRecorder // optional
	Logger   *slog.Logger
}

// ProactiveRunner evaluates the policy once per interval. A tick that is
// skipped is not retried, and a panic inside a tick is logged and does not
// stop the loop.
type ProactiveRunner struct {
	policy   Evaluator
	interval time.Duration
	metrics  TickRecorder
	logger   *slog.Logger
}

// NewProactiveRunner creates a ProactiveRunner.
func NewProactiveRunner(cfg RunnerConfig) *ProactiveRunner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &ProactiveRunner{
		policy:   cfg.Policy,
		interval: interval,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. The first evaluation happens one
// interval after Run is called.
func (r *ProactiveRunner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "proactive runner started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "proactive runner stopped")
			return nil
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs a single evaluation and returns its decision.
func (r *ProactiveRunner) Tick(ctx context.Context) (decision Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "proactive tick panicked", "panic", fmt.Sprint(rec))
			decision = DecisionFailedPrediction
		}
		if r.metrics != nil {
			r.metrics.RecordTick(ctx, string(decision))
		}
	}()

	decision, rec := r.policy.Evaluate(ctx)
	if decision.Triggered() && rec != nil {
		r.logger.InfoContext(ctx, "proactive alert raised",
			"prediction_id", rec.ID,
			"emotion", string(rec.Prediction.PredictedEmotion),
		)
	} else {
		r.logger.DebugContext(ctx, "proactive tick", "decision", string(decision))
	}
	return decision
}
