package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"lumera/internal/types"
)

// PredictionLedger is the history of completed predictions. Records are never
// removed; only their feedback changes.
type PredictionLedger struct {
	j      *journal[types.PredictionRecord]
	logger *slog.Logger
}

// NewPredictionLedger loads the persisted prediction history from store.
func NewPredictionLedger(ctx context.Context, store types.Store, logger *slog.Logger) (*PredictionLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	j := newJournal(store, types.PredictionHistoryKey, logger, types.PredictionRecord.Clone)
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return &PredictionLedger{j: j, logger: logger}, nil
}

// Append records rec as the most recent prediction.
func (l *PredictionLedger) Append(ctx context.Context, rec types.PredictionRecord) error {
	return l.j.prepend(ctx, rec.Clone())
}

// All returns every record, most recent first.
func (l *PredictionLedger) All() []types.PredictionRecord {
	return l.j.collect(0, nil)
}

// ByKind returns the records created by the given trigger.
func (l *PredictionLedger) ByKind(kind types.PredictionKind) []types.PredictionRecord {
	return l.j.collect(0, func(r types.PredictionRecord) bool { return r.Kind == kind })
}

// ByID returns the record with the given id or types.ErrNotFound.
func (l *PredictionLedger) ByID(id string) (types.PredictionRecord, error) {
	found := l.j.collect(1, func(r types.PredictionRecord) bool { return r.ID == id })
	if len(found) == 0 {
		return types.PredictionRecord{}, notFound(id)
	}
	return found[0], nil
}

// RecentWithEmotionVote returns up to n records that carry an emotion vote.
func (l *PredictionLedger) RecentWithEmotionVote(n int) []types.PredictionRecord {
	if n <= 0 {
		return []types.PredictionRecord{}
	}
	return l.j.collect(n, types.PredictionRecord.HasEmotionVote)
}

// RecentWithSuggestionVote returns up to n records that carry a helpfulness
// vote on a suggestion.
func (l *PredictionLedger) RecentWithSuggestionVote(n int) []types.PredictionRecord {
	if n <= 0 {
		return []types.PredictionRecord{}
	}
	return l.j.collect(n, func(r types.PredictionRecord) bool {
		return r.HasSuggestionVote() && r.Prediction.Suggestion != nil
	})
}

// UpdateFeedback sets the field targeted by vote on the record with the given
// id, leaving the other feedback field as it was. An unknown id returns
// types.ErrNotFound without touching the store.
func (l *PredictionLedger) UpdateFeedback(ctx context.Context, id string, vote types.FeedbackVote) (types.PredictionRecord, error) {
	rec, found, err := l.j.replace(ctx,
		func(r types.PredictionRecord) bool { return r.ID == id },
		func(r types.PredictionRecord) types.PredictionRecord {
			var fb types.Feedback
			if r.Prediction.Feedback != nil {
				fb = *r.Prediction.Feedback
			}
			fb = fb.With(vote)
			r.Prediction.Feedback = &fb
			return r
		},
	)
	if !found {
		return types.PredictionRecord{}, notFound(id)
	}
	if err != nil {
		return types.PredictionRecord{}, err
	}
	l.logger.DebugContext(ctx, "feedback recorded",
		"prediction_id", id, "feedback_type", string(vote.Type()), "value", vote.Value())
	return rec, nil
}

// Len returns the number of records.
func (l *PredictionLedger) Len() int {
	return l.j.size()
}

func notFound(id string) error {
	return types.NewAppErrorWithDetails(types.ErrCodeNotFoundPrediction,
		fmt.Sprintf("prediction %s not found", id), nil, map[string]any{"id": id})
}
