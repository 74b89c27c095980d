package predict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumera/internal/ledger"
	"lumera/internal/store"
	"lumera/internal/types"
)

// --- mocks ---

type mockInference struct {
	mu           sync.Mutex
	predictFn    func(ctx context.Context) (types.EmotionEstimate, error)
	copingFn     func(ctx context.Context) (types.CopingAdvice, error)
	predictCalls int
	copingCalls  int

	lastMoods      []types.MoodDigestItem
	lastVotes      []types.EmotionFeedbackItem
	lastSuggestion []types.SuggestionFeedbackItem
}

func (m *mockInference) PredictEmotion(ctx context.Context, _ types.ContextSnapshot, moods []types.MoodDigestItem, votes []types.EmotionFeedbackItem) (types.EmotionEstimate, error) {
	m.mu.Lock()
	m.predictCalls++
	m.lastMoods = moods
	m.lastVotes = votes
	fn := m.predictFn
	m.mu.Unlock()
	return fn(ctx)
}

func (m *mockInference) SuggestCoping(ctx context.Context, _ types.Emotion, _ types.ContextSnapshot, history []types.SuggestionFeedbackItem) (types.CopingAdvice, error) {
	m.mu.Lock()
	m.copingCalls++
	m.lastSuggestion = history
	fn := m.copingFn
	m.mu.Unlock()
	if fn == nil {
		return types.CopingAdvice{}, errors.New("not configured")
	}
	return fn(ctx)
}

func estimate(e types.Emotion) func(context.Context) (types.EmotionEstimate, error) {
	return func(context.Context) (types.EmotionEstimate, error) {
		return types.EmotionEstimate{PredictedEmotion: e, Probability: 0.8, Reasoning: "pattern"}, nil
	}
}

type mockObserver struct {
	mu       sync.Mutex
	created  []types.PredictionRecord
	feedback []types.PredictionRecord
}

func (m *mockObserver) PredictionCreated(_ context.Context, rec types.PredictionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, rec)
}

func (m *mockObserver) FeedbackApplied(_ context.Context, rec types.PredictionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, rec)
}

type mockMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *mockMetrics) RecordPrediction(_ context.Context, _ types.PredictionKind, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// failingStore fails every Set.
type failingStore struct{ *store.MemoryStore }

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }

// --- fixtures ---

type fixture struct {
	moods       *ledger.MoodLedger
	predictions *ledger.PredictionLedger
	inference   *mockInference
	observer    *mockObserver
	metrics     *mockMetrics
	orch        *Orchestrator
}

func newFixture(t *testing.T, s types.Store) *fixture {
	t.Helper()
	ctx := context.Background()
	if s == nil {
		s = store.NewMemoryStore()
	}
	moods, err := ledger.NewMoodLedger(ctx, store.NewMemoryStore(), nil)
	require.NoError(t, err)
	preds, err := ledger.NewPredictionLedger(ctx, s, nil)
	require.NoError(t, err)

	f := &fixture{
		moods:       moods,
		predictions: preds,
		inference:   &mockInference{predictFn: estimate(types.EmotionCalm)},
		observer:    &mockObserver{},
		metrics:     &mockMetrics{},
	}
	n := 0
	f.orch = NewOrchestrator(OrchestratorConfig{
		Moods:       moods,
		Predictions: preds,
		Inference:   f.inference,
		Observer:    f.observer,
		Metrics:     f.metrics,
		Clock:       fixedClock{t: time.UnixMilli(1_700_000_000_000)},
		NewID: func() (string, error) {
			n++
			return fmt.Sprintf("pred-%d", n), nil
		},
	})
	return f
}

func (f *fixture) logMoods(t *testing.T, n int, lat float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		note := fmt.Sprintf("note %d", i)
		require.NoError(t, f.moods.Append(context.Background(), types.MoodEntry{
			ID:      fmt.Sprintf("mood-%d-%f", i, lat),
			Emotion: types.EmotionCalm,
			Note:    &note,
			ContextSnapshot: types.ContextSnapshot{
				Coordinates: types.Coordinates{Latitude: lat, Longitude: -0.12345},
				Weather:     types.WeatherSnapshot{TemperatureC: 12, Condition: "Rain"},
				DayOfWeek:   "Tuesday",
				TimeOfDay:   "08:15 AM",
			},
		}))
	}
}

var snap = types.ContextSnapshot{
	Coordinates: types.Coordinates{Latitude: 51.5, Longitude: -0.12},
	Weather:     types.DefaultWeather,
	TimestampMs: 1_700_000_000_000,
	DayOfWeek:   "Tuesday",
	TimeOfDay:   "08:15 AM",
}

// --- orchestrator ---

func TestOrchestrator_NonChallengingEmotion(t *testing.T) {
	f := newFixture(t, nil)
	f.logMoods(t, 3, 51.5)

	rec, err := f.orch.Request(context.Background(), snap, types.KindManual)
	require.NoError(t, err)

	assert.Equal(t, "pred-1", rec.ID)
	assert.Equal(t, types.KindManual, rec.Kind)
	assert.Equal(t, int64(1_700_000_000_000), rec.TimestampMs)
	assert.Equal(t, types.EmotionCalm, rec.Prediction.PredictedEmotion)
	assert.Nil(t, rec.Prediction.Suggestion)
	assert.Equal(t, 0, f.inference.copingCalls)

	assert.Equal(t, 1, f.predictions.Len())
	require.Len(t, f.observer.created, 1)
	assert.Equal(t, rec.ID, f.observer.created[0].ID)
	assert.Equal(t, []string{types.OutcomeSuccess}, f.metrics.outcomes)
	assert.False(t, f.orch.Busy())
}

func TestOrchestrator_ChallengingEmotionGetsSuggestion(t *testing.T) {
	f := newFixture(t, nil)
	f.inference.predictFn = estimate(types.EmotionStressed)
	f.inference.copingFn = func(context.Context) (types.CopingAdvice, error) {
		return types.CopingAdvice{
			Suggestion: "Walk to the library.",
			Grounding:  []types.GroundingLink{{URI: "https://maps.example/lib", Title: "Library"}},
		}, nil
	}

	rec, err := f.orch.Request(context.Background(), snap, types.KindProactive)
	require.NoError(t, err)
	require.NotNil(t, rec.Prediction.Suggestion)
	assert.Equal(t, "Walk to the library.", *rec.Prediction.Suggestion)
	assert.Len(t, rec.Prediction.Grounding, 1)
}

func TestOrchestrator_CopingFailureUsesFallback(t *testing.T) {
	f := newFixture(t, nil)
	f.inference.predictFn = estimate(types.EmotionAnxious)
	f.inference.copingFn = func(context.Context) (types.CopingAdvice, error) {
		return types.CopingAdvice{}, errors.New("timeout")
	}

	rec, err := f.orch.Request(context.Background(), snap, types.KindManual)
	require.NoError(t, err)
	require.NotNil(t, rec.Prediction.Suggestion)
	assert.Equal(t, types.FallbackSuggestion, *rec.Prediction.Suggestion)
	assert.Equal(t, 1, f.predictions.Len())
}

func TestOrchestrator_InferenceFailureWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.inference.predictFn = func(context.Context) (types.EmotionEstimate, error) {
		return types.EmotionEstimate{}, errors.New("503")
	}

	_, err := f.orch.Request(context.Background(), snap, types.KindManual)
	assert.ErrorIs(t, err, types.ErrPredictionFailed)
	assert.Equal(t, 0, f.predictions.Len())
	assert.Empty(t, f.observer.created)
	assert.False(t, f.orch.Busy())
	assert.Equal(t, []string{types.OutcomeFailure}, f.metrics.outcomes)
}

func TestOrchestrator_UnknownEmotionRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.inference.predictFn = estimate(types.Emotion("Bored"))

	_, err := f.orch.Request(context.Background(), snap, types.KindManual)
	assert.ErrorIs(t, err, types.ErrPredictionFailed)
	assert.Equal(t, 0, f.predictions.Len())
}

func TestOrchestrator_StorageFailure(t *testing.T) {
	f := newFixture(t, failingStore{store.NewMemoryStore()})

	_, err := f.orch.Request(context.Background(), snap, types.KindManual)
	assert.ErrorIs(t, err, types.ErrStorage)
	assert.Empty(t, f.observer.created)
	assert.False(t, f.orch.Busy())
}

func TestOrchestrator_SecondRequestWhileBusy(t *testing.T) {
	f := newFixture(t, nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.inference.predictFn = func(context.Context) (types.EmotionEstimate, error) {
		close(entered)
		<-release
		return types.EmotionEstimate{PredictedEmotion: types.EmotionHappy, Probability: 0.9}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Request(context.Background(), snap, types.KindProactive)
		done <- err
	}()
	<-entered

	assert.True(t, f.orch.Busy())
	_, err := f.orch.Request(context.Background(), snap, types.KindManual)
	assert.ErrorIs(t, err, types.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.orch.Busy())
	assert.Equal(t, 1, f.predictions.Len())
	assert.Equal(t, 1, f.inference.predictCalls)
}

// blockingObserver holds its first PredictionCreated call until release is
// closed.
type blockingObserver struct {
	mockObserver
	entered     chan struct{}
	release     chan struct{}
	once        sync.Once
	hadDeadline bool
}

func (b *blockingObserver) PredictionCreated(ctx context.Context, rec types.PredictionRecord) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		_, b.hadDeadline = ctx.Deadline()
		close(b.entered)
		<-b.release
	}
	b.mockObserver.PredictionCreated(ctx, rec)
}

func TestOrchestrator_GateReleasedBeforeObserverDelivery(t *testing.T) {
	f := newFixture(t, nil)
	obs := &blockingObserver{entered: make(chan struct{}), release: make(chan struct{})}
	n := 0
	orch := NewOrchestrator(OrchestratorConfig{
		Moods:       f.moods,
		Predictions: f.predictions,
		Inference:   f.inference,
		Observer:    obs,
		Clock:       fixedClock{t: time.UnixMilli(1_700_000_000_000)},
		NewID: func() (string, error) {
			n++
			return fmt.Sprintf("pred-%d", n), nil
		},
	})

	done := make(chan error, 1)
	go func() {
		_, err := orch.Request(context.Background(), snap, types.KindProactive)
		done <- err
	}()
	<-obs.entered

	assert.Equal(t, 1, f.predictions.Len())
	assert.False(t, orch.Busy())
	assert.True(t, obs.hadDeadline)

	second, err := orch.Request(context.Background(), snap, types.KindManual)
	require.NoError(t, err)
	assert.Equal(t, "pred-2", second.ID)

	close(obs.release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, f.predictions.Len())
	assert.Len(t, obs.created, 2)
}

func TestOrchestrator_ProbabilityPassesThroughUnclamped(t *testing.T) {
	for _, p := range []float64{1.7, -0.2} {
		t.Run(fmt.Sprint(p), func(t *testing.T) {
			f := newFixture(t, nil)
			f.inference.predictFn = func(context.Context) (types.EmotionEstimate, error) {
				return types.EmotionEstimate{PredictedEmotion: types.EmotionCalm, Probability: p}, nil
			}

			rec, err := f.orch.Request(context.Background(), snap, types.KindManual)
			require.NoError(t, err)
			assert.Equal(t, p, rec.Prediction.Probability)

			stored, err := f.predictions.ByID(rec.ID)
			require.NoError(t, err)
			assert.Equal(t, p, stored.Prediction.Probability)
		})
	}
}

func TestOrchestrator_CallerCancellationDoesNotAbortInference(t *testing.T) {
	f := newFixture(t, nil)
	var sawCancel bool
	f.inference.predictFn = func(ctx context.Context) (types.EmotionEstimate, error) {
		sawCancel = ctx.Err() != nil
		return types.EmotionEstimate{PredictedEmotion: types.EmotionCalm}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.orch.Request(ctx, snap, types.KindManual)
	require.NoError(t, err)
	assert.False(t, sawCancel)
}

func TestOrchestrator_DigestsSentToInference(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.logMoods(t, 25, 51.50049)

	// Seven predictions, six with emotion votes, two with suggestion votes.
	f.inference.predictFn = estimate(types.EmotionSad)
	f.inference.copingFn = func(context.Context) (types.CopingAdvice, error) {
		return types.CopingAdvice{Suggestion: "Call a friend."}, nil
	}
	var ids []string
	for i := 0; i < 7; i++ {
		rec, err := f.orch.Request(ctx, snap, types.KindManual)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	for _, id := range ids[:6] {
		_, err := f.predictions.UpdateFeedback(ctx, id, types.VoteInaccurate)
		require.NoError(t, err)
	}
	for _, id := range ids[:2] {
		_, err := f.predictions.UpdateFeedback(ctx, id, types.VoteNotHelpful)
		require.NoError(t, err)
	}

	_, err := f.orch.Request(ctx, snap, types.KindManual)
	require.NoError(t, err)

	require.Len(t, f.inference.lastMoods, types.MoodDigestLimit)
	first := f.inference.lastMoods[0]
	assert.Equal(t, "51.500", first.Lat)
	assert.Equal(t, "-0.123", first.Lon)
	assert.Equal(t, "Rain", first.Weather)
	assert.Equal(t, "Tuesday", first.DayOfWeek)
	assert.Equal(t, "note 24", first.Note)

	require.Len(t, f.inference.lastVotes, types.FeedbackDigestLimit)
	assert.Equal(t, types.VoteInaccurate, f.inference.lastVotes[0].Feedback)

	require.Len(t, f.inference.lastSuggestion, 2)
	assert.Equal(t, "Call a friend.", f.inference.lastSuggestion[0].Suggestion)
	assert.Equal(t, types.VoteNotHelpful, f.inference.lastSuggestion[0].Feedback)
}

// --- slots & feedback ---

func TestSlots(t *testing.T) {
	s := NewSlots()
	_, ok := s.LiveAlert()
	assert.False(t, ok)
	assert.False(t, s.DismissAlert())

	rec := types.PredictionRecord{ID: "p1", Prediction: types.Prediction{PredictedEmotion: types.EmotionSad}}
	s.SetLiveAlert(rec)
	s.SetManualResult(rec)
	assert.True(t, s.HasLiveAlert())

	got, ok := s.LiveAlert()
	require.True(t, ok)
	got.Prediction.PredictedEmotion = types.EmotionHappy
	again, _ := s.LiveAlert()
	assert.Equal(t, types.EmotionSad, again.Prediction.PredictedEmotion)

	assert.True(t, s.DismissAlert())
	assert.False(t, s.HasLiveAlert())

	s.ClearManualResult()
	_, ok = s.ManualResult()
	assert.False(t, ok)
}

func TestFeedbackApplier_UpdatesLedgerAndSlots(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.inference.predictFn = estimate(types.EmotionSad)
	f.inference.copingFn = func(context.Context) (types.CopingAdvice, error) {
		return types.CopingAdvice{Suggestion: "Breathe."}, nil
	}
	rec, err := f.orch.Request(ctx, snap, types.KindProactive)
	require.NoError(t, err)

	slots := NewSlots()
	slots.SetLiveAlert(rec)
	slots.SetManualResult(rec)
	applier := NewFeedbackApplier(f.predictions, slots, f.observer, nil)

	applied, err := applier.Apply(ctx, rec.ID, types.VoteAccurate)
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = applier.Apply(ctx, rec.ID, types.VoteHelpful)
	require.NoError(t, err)
	assert.True(t, applied)

	stored, err := f.predictions.ByID(rec.ID)
	require.NoError(t, err)
	live, _ := slots.LiveAlert()
	manual, _ := slots.ManualResult()
	for _, r := range []types.PredictionRecord{stored, live, manual} {
		require.NotNil(t, r.Prediction.Feedback)
		assert.Equal(t, types.VoteAccurate, *r.Prediction.Feedback.Emotion)
		assert.Equal(t, types.VoteHelpful, *r.Prediction.Feedback.Suggestion)
	}
	assert.Len(t, f.observer.feedback, 2)
}

func TestFeedbackApplier_UnknownIDIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	slots := NewSlots()
	applier := NewFeedbackApplier(f.predictions, slots, f.observer, nil)

	applied, err := applier.Apply(context.Background(), "missing", types.VoteAccurate)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, f.observer.feedback)
}

func TestFeedbackApplier_StorageFailure(t *testing.T) {
	f := newFixture(t, nil)
	rec, err := f.orch.Request(context.Background(), snap, types.KindManual)
	require.NoError(t, err)

	applier := NewFeedbackApplier(failingUpdater{}, NewSlots(), nil, nil)
	_, err = applier.Apply(context.Background(), rec.ID, types.VoteAccurate)
	assert.ErrorIs(t, err, types.ErrStorage)
}

type failingUpdater struct{}

func (failingUpdater) UpdateFeedback(context.Context, string, types.FeedbackVote) (types.PredictionRecord, error) {
	return types.PredictionRecord{}, types.NewAppError(types.ErrCodeInternalStorage, "persist", errors.New("disk full"))
}
