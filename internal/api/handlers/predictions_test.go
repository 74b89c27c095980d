package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumera/internal/types"
)

func record(id string, kind types.PredictionKind, emotion types.Emotion) types.PredictionRecord {
	return types.PredictionRecord{
		ID:          id,
		Kind:        kind,
		TimestampMs: 1792402200000,
		Prediction: types.Prediction{
			PredictedEmotion: emotion,
			Probability:      0.8,
			Reasoning:        "pattern",
		},
	}
}

func TestPredictionHandler_Create(t *testing.T) {
	m := &mockEngine{requestFn: func(context.Context) (types.PredictionRecord, error) {
		return record("p1", types.KindManual, types.EmotionCalm), nil
	}}

	rec := do(t, newRouter(m), http.MethodPost, "/v1/predictions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	got := decodeData[types.PredictionRecord](t, rec)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, types.KindManual, got.Kind)
}

func TestPredictionHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not enough history", types.ErrNotEnoughHistory.WithDetails(map[string]any{"required": 3, "logged": 2}), http.StatusUnprocessableEntity},
		{"busy", types.ErrBusy, http.StatusConflict},
		{"no context", types.ErrContextUnavailable, http.StatusConflict},
		{"inference failed", types.ErrPredictionFailed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockEngine{requestFn: func(context.Context) (types.PredictionRecord, error) {
				return types.PredictionRecord{}, tt.err
			}}
			rec := do(t, newRouter(m), http.MethodPost, "/v1/predictions", "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPredictionHandler_ListByKind(t *testing.T) {
	m := &mockEngine{records: []types.PredictionRecord{
		record("p2", types.KindProactive, types.EmotionSad),
		record("p1", types.KindManual, types.EmotionHappy),
	}}
	h := newRouter(m)

	rec := do(t, h, http.MethodGet, "/v1/predictions", "")
	assert.Len(t, decodeData[[]types.PredictionRecord](t, rec), 2)
	assert.Equal(t, types.PredictionKind(""), m.lastKind)

	rec = do(t, h, http.MethodGet, "/v1/predictions?kind=proactive", "")
	got := decodeData[[]types.PredictionRecord](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)

	rec = do(t, h, http.MethodGet, "/v1/predictions?kind=weekly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidKind), errorCode(t, rec))
}

func TestPredictionHandler_GetAndManual(t *testing.T) {
	manual := record("p1", types.KindManual, types.EmotionHappy)
	m := &mockEngine{records: []types.PredictionRecord{manual}}
	h := newRouter(m)

	rec := do(t, h, http.MethodGet, "/v1/predictions/p1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/predictions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/predictions/manual", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	m.manual = &manual
	rec = do(t, h, http.MethodGet, "/v1/predictions/manual", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", decodeData[types.PredictionRecord](t, rec).ID)
}

func TestPredictionHandler_Feedback(t *testing.T) {
	voted := record("p1", types.KindProactive, types.EmotionStressed)
	m := &mockEngine{records: []types.PredictionRecord{voted}}
	m.feedbackFn = func(_ context.Context, id, ft, value string) (bool, error) {
		if _, err := types.ParseFeedbackVote(ft, value); err != nil {
			return false, err
		}
		if id != "p1" {
			return false, nil
		}
		v := types.SuggestionVote(value)
		m.records[0].Prediction.Feedback = &types.Feedback{Suggestion: &v}
		return true, nil
	}
	h := newRouter(m)

	rec := do(t, h, http.MethodPost, "/v1/predictions/p1/feedback", `{"type":"suggestion","value":"helpful"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData[types.PredictionRecord](t, rec)
	require.NotNil(t, got.Prediction.Feedback)
	assert.Equal(t, types.VoteHelpful, *got.Prediction.Feedback.Suggestion)

	rec = do(t, h, http.MethodPost, "/v1/predictions/p1/feedback", `{"type":"emotion","value":"helpful"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidFeedback), errorCode(t, rec))

	rec = do(t, h, http.MethodPost, "/v1/predictions/p1/feedback", `{"type":"mood","value":"helpful"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidFeedback), errorCode(t, rec))

	rec = do(t, h, http.MethodPost, "/v1/predictions/ghost/feedback", `{"type":"emotion","value":"accurate"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
