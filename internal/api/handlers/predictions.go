package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumera/internal/core"
	"lumera/internal/types"
)

// PredictionEngine is the slice of the engine that runs and reads predictions.
type PredictionEngine interface {
	RequestManualPrediction(ctx context.Context) (types.PredictionRecord, error)
	PredictionHistory(kind types.PredictionKind) []types.PredictionRecord
	Prediction(id string) (types.PredictionRecord, error)
	ManualResult() (types.PredictionRecord, bool)
	SubmitFeedback(ctx context.Context, id, feedbackType, value string) (bool, error)
}

// FeedbackRequest is the body of POST /v1/predictions/{id}/feedback.
type FeedbackRequest struct {
	Type  string `json:"type" validate:"required,feedback_type"`
	Value string `json:"value" validate:"required"`
}

// PredictionHandler serves /v1/predictions.
type PredictionHandler struct {
	engine    PredictionEngine
	validator *core.Validator
	logger    *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler. v validates feedback
// bodies.
func NewPredictionHandler(e PredictionEngine, v *core.Validator, l *slog.Logger) *PredictionHandler {
	if l == nil {
		l = slog.Default()
	}
	return &PredictionHandler{engine: e, validator: v, logger: l}
}

// RegisterRoutes mounts the prediction routes.
func (h *PredictionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/predictions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/manual", h.Manual)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/feedback", h.Feedback)
	})
}

// Create runs a manual prediction for the current context and blocks until
// it completes.
func (h *PredictionHandler) Create(w http.ResponseWriter, r *http.Request) {
	rec, err := h.engine.RequestManualPrediction(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusCreated, rec)
}

// List returns predictions newest first, optionally narrowed by ?kind=.
func (h *PredictionHandler) List(w http.ResponseWriter, r *http.Request) {
	var kind types.PredictionKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := types.ParsePredictionKind(raw)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		kind = k
	}

	records := h.engine.PredictionHistory(kind)
	if records == nil {
		records = []types.PredictionRecord{}
	}
	core.Data(w, r, http.StatusOK, records)
}

// Get returns one prediction.
func (h *PredictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.engine.Prediction(chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, rec)
}

// Manual returns the result of the last manual prediction while it is shown.
func (h *PredictionHandler) Manual(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.engine.ManualResult()
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundPrediction, "no manual result is shown", nil))
		return
	}
	core.Data(w, r, http.StatusOK, rec)
}

// Feedback applies an emotion or suggestion vote and returns the updated
// record.
func (h *PredictionHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req FeedbackRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	applied, err := h.engine.SubmitFeedback(r.Context(), id, req.Type, req.Value)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if !applied {
		core.Error(w, r, types.ErrNotFound.WithDetails(map[string]any{"id": id}))
		return
	}

	rec, err := h.engine.Prediction(id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "feedback recorded",
		"prediction_id", id, "type", req.Type, "value", req.Value)
	core.Data(w, r, http.StatusOK, rec)
}
