package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"lumera/internal/core"
	"lumera/internal/types"
)

// mockEngine implements every handler interface. Unset hooks return zero
// values.
type mockEngine struct {
	refreshFn  func(ctx context.Context) (types.ContextSnapshot, error)
	current    *types.ContextSnapshot
	logMoodFn  func(ctx context.Context, emotion types.Emotion, note string) (types.MoodEntry, error)
	moods      []types.MoodEntry
	frequency  map[types.Emotion]int
	requestFn  func(ctx context.Context) (types.PredictionRecord, error)
	records    []types.PredictionRecord
	manual     *types.PredictionRecord
	feedbackFn func(ctx context.Context, id, feedbackType, value string) (bool, error)
	live       *types.PredictionRecord

	lastFilter types.MoodFilter
	lastKind   types.PredictionKind
	logCalls   int
}

func (m *mockEngine) RefreshContext(ctx context.Context) (types.ContextSnapshot, error) {
	return m.refreshFn(ctx)
}

func (m *mockEngine) CurrentContext() (types.ContextSnapshot, bool) {
	if m.current == nil {
		return types.ContextSnapshot{}, false
	}
	return *m.current, true
}

func (m *mockEngine) LogMood(ctx context.Context, emotion types.Emotion, note string) (types.MoodEntry, error) {
	m.logCalls++
	return m.logMoodFn(ctx, emotion, note)
}

func (m *mockEngine) MoodHistory(filter types.MoodFilter) []types.MoodEntry {
	m.lastFilter = filter
	var out []types.MoodEntry
	for _, e := range m.moods {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockEngine) MoodFrequency() map[types.Emotion]int { return m.frequency }

func (m *mockEngine) RequestManualPrediction(ctx context.Context) (types.PredictionRecord, error) {
	return m.requestFn(ctx)
}

func (m *mockEngine) PredictionHistory(kind types.PredictionKind) []types.PredictionRecord {
	m.lastKind = kind
	var out []types.PredictionRecord
	for _, r := range m.records {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (m *mockEngine) Prediction(id string) (types.PredictionRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return types.PredictionRecord{}, types.ErrNotFound
}

func (m *mockEngine) ManualResult() (types.PredictionRecord, bool) {
	if m.manual == nil {
		return types.PredictionRecord{}, false
	}
	return *m.manual, true
}

func (m *mockEngine) SubmitFeedback(ctx context.Context, id, feedbackType, value string) (bool, error) {
	return m.feedbackFn(ctx, id, feedbackType, value)
}

func (m *mockEngine) LiveAlert() (types.PredictionRecord, bool) {
	if m.live == nil {
		return types.PredictionRecord{}, false
	}
	return *m.live, true
}

func (m *mockEngine) DismissAlert() bool {
	had := m.live != nil
	m.live = nil
	return had
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRouter mounts every handler backed by m under /v1, the way main does.
func newRouter(m *mockEngine) http.Handler {
	v := core.NewValidator(quietLogger())
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		NewContextHandler(m, quietLogger()).RegisterRoutes(r)
		NewMoodHandler(m, v, quietLogger()).RegisterRoutes(r)
		NewPredictionHandler(m, v, quietLogger()).RegisterRoutes(r)
		NewAlertHandler(m, quietLogger()).RegisterRoutes(r)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Code
}

func snapshot() types.ContextSnapshot {
	return types.ContextSnapshot{
		Coordinates: types.Coordinates{Latitude: 40.7128, Longitude: -74.006},
		Weather:     types.WeatherSnapshot{TemperatureC: 18, Condition: "Clear Sky"},
		TimestampMs: 1792402200000,
		DayOfWeek:   "Monday",
		TimeOfDay:   "09:30 AM",
	}
}
