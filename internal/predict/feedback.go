package predict

import (
	"context"
	"errors"
	"log/slog"

	"lumera/internal/types"
)

// FeedbackStore is the write side of the prediction ledger used by the
// FeedbackApplier.
type FeedbackStore interface {
	UpdateFeedback(ctx context.Context, id string, vote types.FeedbackVote) (types.PredictionRecord, error)
}

// FeedbackApplier records votes and keeps the display slots consistent with
// the ledger.
type FeedbackApplier struct {
	store    FeedbackStore
	slots    *Slots
	observer Observer
	logger   *slog.Logger
}

// NewFeedbackApplier creates a FeedbackApplier. observer may be nil.
func NewFeedbackApplier(store FeedbackStore, slots *Slots, observer Observer, logger *slog.Logger) *FeedbackApplier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackApplier{store: store, slots: slots, observer: observer, logger: logger}
}

// Apply sets one feedback field on the record with the given id. An unknown
// id is a no-op that returns applied=false and a nil error; only storage
// failures are returned as errors.
func (a *FeedbackApplier) Apply(ctx context.Context, id string, vote types.FeedbackVote) (bool, error) {
	rec, err := a.store.UpdateFeedback(ctx, id, vote)
	if errors.Is(err, types.ErrNotFound) {
		a.logger.DebugContext(ctx, "feedback for unknown prediction ignored", "prediction_id", id)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if a.slots != nil {
		a.slots.Refresh(rec)
	}
	if a.observer != nil {
		a.observer.FeedbackApplied(ctx, rec)
	}
	return true, nil
}
