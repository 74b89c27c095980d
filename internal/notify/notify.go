// Package notify delivers prediction events to interested parties: browser
// clients over WebSocket and downstream consumers over SQS.
package notify

import (
	"context"
	"log/slog"

	"lumera/internal/types"
)

// Event types.
const (
	EventPredictionCreated  = "prediction.created"
	EventPredictionFeedback = "prediction.feedback"
)

// Event is the envelope every sink receives.
type Event struct {
	Type   string                 `json:"type"`
	Record types.PredictionRecord `json:"record"`
}

// Sink is a single delivery channel.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
}

// Fanout forwards events to every sink. A failing sink is logged and does
// not affect the others or the caller.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewFanout creates a Fanout over sinks.
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{sinks: sinks, logger: logger}
}

// PredictionCreated publishes a prediction.created event.
func (f *Fanout) PredictionCreated(ctx context.Context, rec types.PredictionRecord) {
	f.publish(ctx, Event{Type: EventPredictionCreated, Record: rec})
}

// FeedbackApplied publishes a prediction.feedback event.
func (f *Fanout) FeedbackApplied(ctx context.Context, rec types.PredictionRecord) {
	f.publish(ctx, Event{Type: EventPredictionFeedback, Record: rec})
}

func (f *Fanout) publish(ctx context.Context, ev Event) {
	for _, s := range f.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			f.logger.WarnContext(ctx, "event delivery failed",
				"sink", s.Name(),
				"event", ev.Type,
				"prediction_id", ev.Record.ID,
				"error", err,
			)
		}
	}
}
