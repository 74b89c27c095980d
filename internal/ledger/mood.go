package ledger

import (
	"context"
	"log/slog"

	"lumera/internal/geo"
	"lumera/internal/types"
)

// MoodLedger is the user's mood history.
type MoodLedger struct {
	j *journal[types.MoodEntry]
}

// NewMoodLedger loads the persisted mood history from store.
func NewMoodLedger(ctx context.Context, store types.Store, logger *slog.Logger) (*MoodLedger, error) {
	j := newJournal(store, types.MoodHistoryKey, logger, cloneMood)
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return &MoodLedger{j: j}, nil
}

func cloneMood(e types.MoodEntry) types.MoodEntry {
	if e.Note != nil {
		n := *e.Note
		e.Note = &n
	}
	return e
}

// Append records entry as the most recent mood. The snapshot is persisted
// before Append returns; on failure the ledger is unchanged.
func (l *MoodLedger) Append(ctx context.Context, entry types.MoodEntry) error {
	return l.j.prepend(ctx, cloneMood(entry))
}

// All returns every entry, most recent first.
func (l *MoodLedger) All() []types.MoodEntry {
	return l.j.collect(0, nil)
}

// Recent returns up to n entries, most recent first.
func (l *MoodLedger) Recent(n int) []types.MoodEntry {
	if n <= 0 {
		return []types.MoodEntry{}
	}
	return l.j.collect(n, nil)
}

// Within returns the entries logged strictly closer than radiusMeters to point.
func (l *MoodLedger) Within(point types.Coordinates, radiusMeters float64) []types.MoodEntry {
	return l.j.collect(0, func(e types.MoodEntry) bool {
		return geo.Within(point, e.Coordinates, radiusMeters)
	})
}

// Filter returns the entries matching f.
func (l *MoodLedger) Filter(f types.MoodFilter) []types.MoodEntry {
	return l.j.collect(0, f.Matches)
}

// Frequency counts entries per emotion. Every emotion has a key.
func (l *MoodLedger) Frequency() map[types.Emotion]int {
	counts := make(map[types.Emotion]int, len(types.AllEmotions))
	for _, e := range types.AllEmotions {
		counts[e] = 0
	}
	l.j.mu.RLock()
	defer l.j.mu.RUnlock()
	for _, it := range l.j.items {
		counts[it.Emotion]++
	}
	return counts
}

// Len returns the number of entries.
func (l *MoodLedger) Len() int {
	return l.j.size()
}
