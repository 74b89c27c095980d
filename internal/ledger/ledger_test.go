package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumera/internal/store"
	"lumera/internal/types"
)

// flakyStore wraps a MemoryStore and fails Set while failSet is true.
type flakyStore struct {
	*store.MemoryStore
	failSet  bool
	setCalls int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (f *flakyStore) Set(ctx context.Context, key string, data []byte) error {
	f.setCalls++
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Set(ctx, key, data)
}

func mood(id string, e types.Emotion, lat, lon float64) types.MoodEntry {
	return types.MoodEntry{
		ID:      id,
		Emotion: e,
		ContextSnapshot: types.ContextSnapshot{
			Coordinates: types.Coordinates{Latitude: lat, Longitude: lon},
			Weather:     types.DefaultWeather,
			DayOfWeek:   "Monday",
			TimeOfDay:   "09:00 AM",
		},
	}
}

func record(id string, kind types.PredictionKind, e types.Emotion) types.PredictionRecord {
	return types.PredictionRecord{
		ID:   id,
		Kind: kind,
		Prediction: types.Prediction{
			PredictedEmotion: e,
			Probability:      0.7,
			Reasoning:        "pattern",
		},
	}
}

func TestMoodLedger_AppendOrderAndPersist(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	l, err := NewMoodLedger(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())

	require.NoError(t, l.Append(ctx, mood("m1", types.EmotionHappy, 0, 0)))
	require.NoError(t, l.Append(ctx, mood("m2", types.EmotionSad, 0, 0)))

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, "m2", all[0].ID)
	assert.Equal(t, "m1", all[1].ID)

	reloaded, err := NewMoodLedger(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, all, reloaded.All())
}

func TestMoodLedger_AppendRollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := newFlakyStore()
	l, err := NewMoodLedger(ctx, s, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, mood("m1", types.EmotionHappy, 0, 0)))
	before, _, _ := s.Get(ctx, types.MoodHistoryKey)

	s.failSet = true
	err = l.Append(ctx, mood("m2", types.EmotionSad, 0, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStorage)

	assert.Equal(t, 1, l.Len())
	after, _, _ := s.Get(ctx, types.MoodHistoryKey)
	assert.Equal(t, before, after)
}

func TestMoodLedger_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, types.MoodHistoryKey, []byte("{not json")))

	_, err := NewMoodLedger(ctx, s, nil)
	assert.ErrorIs(t, err, types.ErrStorage)
}

func TestMoodLedger_Within(t *testing.T) {
	ctx := context.Background()
	l, err := NewMoodLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)

	require.NoError(t, l.Append(ctx, mood("near-1", types.EmotionCalm, 0, 0)))
	require.NoError(t, l.Append(ctx, mood("far", types.EmotionCalm, 1, 1)))
	require.NoError(t, l.Append(ctx, mood("near-2", types.EmotionCalm, 0.0005, 0)))

	got := l.Within(types.Coordinates{}, 150)
	require.Len(t, got, 2)
	assert.Equal(t, "near-2", got[0].ID)
	assert.Equal(t, "near-1", got[1].ID)
}

func TestMoodLedger_WithinIsSubsetOfAll(t *testing.T) {
	ctx := context.Background()
	l, err := NewMoodLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Append(ctx, mood(fmt.Sprintf("m%d", i), types.EmotionCalm, r.Float64()*0.01, r.Float64()*0.01)))
	}

	ids := make(map[string]int)
	for i, e := range l.All() {
		ids[e.ID] = i
	}
	prev := -1
	for _, e := range l.Within(types.Coordinates{Latitude: 0.005, Longitude: 0.005}, 300) {
		idx, ok := ids[e.ID]
		require.True(t, ok)
		assert.Greater(t, idx, prev, "order must follow All()")
		prev = idx
	}
}

func TestMoodLedger_FilterAndFrequency(t *testing.T) {
	ctx := context.Background()
	l, err := NewMoodLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)

	friday := mood("m3", types.EmotionHappy, 0, 0)
	friday.DayOfWeek = "Friday"
	require.NoError(t, l.Append(ctx, mood("m1", types.EmotionHappy, 0, 0)))
	require.NoError(t, l.Append(ctx, mood("m2", types.EmotionSad, 0, 0)))
	require.NoError(t, l.Append(ctx, friday))

	assert.Len(t, l.Filter(types.MoodFilter{Emotion: types.EmotionHappy}), 2)
	assert.Len(t, l.Filter(types.MoodFilter{DayOfWeek: "Friday"}), 1)
	assert.Len(t, l.Filter(types.MoodFilter{}), 3)

	freq := l.Frequency()
	assert.Len(t, freq, len(types.AllEmotions))
	assert.Equal(t, 2, freq[types.EmotionHappy])
	assert.Equal(t, 1, freq[types.EmotionSad])
	assert.Equal(t, 0, freq[types.EmotionExcited])
}

func TestMoodLedger_AllReturnsCopies(t *testing.T) {
	ctx := context.Background()
	l, err := NewMoodLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)

	note := "walk"
	e := mood("m1", types.EmotionCalm, 0, 0)
	e.Note = &note
	require.NoError(t, l.Append(ctx, e))

	got := l.All()
	*got[0].Note = "changed"
	assert.Equal(t, "walk", *l.All()[0].Note)
}

func TestPredictionLedger_ByIDAndKind(t *testing.T) {
	ctx := context.Background()
	l, err := NewPredictionLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)

	require.NoError(t, l.Append(ctx, record("p1", types.KindManual, types.EmotionCalm)))
	require.NoError(t, l.Append(ctx, record("p2", types.KindProactive, types.EmotionSad)))

	got, err := l.ByID("p1")
	require.NoError(t, err)
	assert.Equal(t, types.KindManual, got.Kind)

	_, err = l.ByID("nope")
	assert.ErrorIs(t, err, types.ErrNotFound)

	proactive := l.ByKind(types.KindProactive)
	require.Len(t, proactive, 1)
	assert.Equal(t, "p2", proactive[0].ID)
}

func TestPredictionLedger_UpdateFeedbackLastWriteWins(t *testing.T) {
	ctx := context.Background()
	l, err := NewPredictionLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, record("p1", types.KindManual, types.EmotionSad)))

	votes := []types.FeedbackVote{
		types.VoteAccurate,
		types.VoteHelpful,
		types.VoteInaccurate,
		types.VoteNotHelpful,
		types.VoteAccurate,
	}
	for _, v := range votes {
		_, err := l.UpdateFeedback(ctx, "p1", v)
		require.NoError(t, err)
	}

	got, err := l.ByID("p1")
	require.NoError(t, err)
	require.NotNil(t, got.Prediction.Feedback)
	assert.Equal(t, types.VoteAccurate, *got.Prediction.Feedback.Emotion)
	assert.Equal(t, types.VoteNotHelpful, *got.Prediction.Feedback.Suggestion)

	// Core fields untouched.
	assert.Equal(t, types.EmotionSad, got.Prediction.PredictedEmotion)
	assert.Equal(t, 0.7, got.Prediction.Probability)
}

func TestPredictionLedger_UpdateFeedbackUnknownIDLeavesBytes(t *testing.T) {
	ctx := context.Background()
	s := newFlakyStore()
	l, err := NewPredictionLedger(ctx, s, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, record("p1", types.KindManual, types.EmotionSad)))

	before, _, _ := s.Get(ctx, types.PredictionHistoryKey)
	calls := s.setCalls

	_, err = l.UpdateFeedback(ctx, "missing", types.VoteAccurate)
	assert.ErrorIs(t, err, types.ErrNotFound)

	after, _, _ := s.Get(ctx, types.PredictionHistoryKey)
	assert.Equal(t, before, after)
	assert.Equal(t, calls, s.setCalls)
}

func TestPredictionLedger_UpdateFeedbackRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newFlakyStore()
	l, err := NewPredictionLedger(ctx, s, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, record("p1", types.KindManual, types.EmotionSad)))

	s.failSet = true
	_, err = l.UpdateFeedback(ctx, "p1", types.VoteAccurate)
	assert.ErrorIs(t, err, types.ErrStorage)

	got, err := l.ByID("p1")
	require.NoError(t, err)
	assert.Nil(t, got.Prediction.Feedback)
}

func TestPredictionLedger_VoteDigests(t *testing.T) {
	ctx := context.Background()
	l, err := NewPredictionLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)

	suggestion := "Step outside for a short walk."
	for i := 0; i < 8; i++ {
		rec := record(fmt.Sprintf("p%d", i), types.KindManual, types.EmotionSad)
		rec.Prediction.Suggestion = &suggestion
		require.NoError(t, l.Append(ctx, rec))
	}
	for i := 0; i < 7; i++ {
		_, err := l.UpdateFeedback(ctx, fmt.Sprintf("p%d", i), types.VoteAccurate)
		require.NoError(t, err)
	}
	_, err = l.UpdateFeedback(ctx, "p7", types.VoteHelpful)
	require.NoError(t, err)

	emotionVoted := l.RecentWithEmotionVote(5)
	require.Len(t, emotionVoted, 5)
	assert.Equal(t, "p6", emotionVoted[0].ID)

	suggestionVoted := l.RecentWithSuggestionVote(5)
	require.Len(t, suggestionVoted, 1)
	assert.Equal(t, "p7", suggestionVoted[0].ID)

	assert.Empty(t, l.RecentWithEmotionVote(0))
}

func TestPredictionLedger_SnapshotFormat(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	l, err := NewPredictionLedger(ctx, s, nil)
	require.NoError(t, err)

	rec := record("p1", types.KindProactive, types.EmotionCalm)
	rec.TimestampMs = 1700000000000
	require.NoError(t, l.Append(ctx, rec))

	raw, found, err := s.Get(ctx, types.PredictionHistoryKey)
	require.NoError(t, err)
	require.True(t, found)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "p1", decoded[0]["id"])
	assert.Equal(t, "proactive", decoded[0]["type"])
	assert.EqualValues(t, 1700000000000, decoded[0]["timestamp"])
}
