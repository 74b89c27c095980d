package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumera/internal/core"
	"lumera/internal/types"
)

// MoodEngine is the slice of the engine that logs and reads moods.
type MoodEngine interface {
	LogMood(ctx context.Context, emotion types.Emotion, note string) (types.MoodEntry, error)
	MoodHistory(filter types.MoodFilter) []types.MoodEntry
	MoodFrequency() map[types.Emotion]int
}

// LogMoodRequest is the body of POST /v1/moods.
type LogMoodRequest struct {
	Emotion string `json:"emotion" validate:"required,emotion"`
	Note    string `json:"note,omitempty" validate:"max=1000"`
}

// FrequencyItem is one row of GET /v1/moods/frequency.
type FrequencyItem struct {
	Emotion types.Emotion `json:"emotion"`
	Count   int           `json:"count"`
}

// MoodHandler serves /v1/moods.
type MoodHandler struct {
	engine    MoodEngine
	validator *core.Validator
	logger    *slog.Logger
}

// NewMoodHandler creates a MoodHandler. v validates request bodies.
func NewMoodHandler(e MoodEngine, v *core.Validator, l *slog.Logger) *MoodHandler {
	if l == nil {
		l = slog.Default()
	}
	return &MoodHandler{engine: e, validator: v, logger: l}
}

// RegisterRoutes mounts the mood routes.
func (h *MoodHandler) RegisterRoutes(r chi.Router) {
	r.Route("/moods", func(r chi.Router) {
		r.Post("/", h.Log)
		r.Get("/", h.List)
		r.Get("/frequency", h.Frequency)
	})
}

// Log records a mood against the current context.
func (h *MoodHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req LogMoodRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	entry, err := h.engine.LogMood(r.Context(), types.Emotion(req.Emotion), req.Note)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusCreated, entry)
}

// List returns the mood history, newest first. Optional query parameters
// emotion and day narrow the result.
func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := types.MoodFilter{
		Emotion:   types.Emotion(q.Get("emotion")),
		DayOfWeek: q.Get("day"),
	}
	if filter.Emotion != "" && !filter.Emotion.Valid() {
		core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidEmotion,
			"unknown emotion", nil, map[string]any{"emotion": q.Get("emotion"), "allowed": types.AllEmotions}))
		return
	}

	entries := h.engine.MoodHistory(filter)
	if entries == nil {
		entries = []types.MoodEntry{}
	}
	core.Data(w, r, http.StatusOK, entries)
}

// Frequency returns the count for every emotion in display order, including
// emotions that were never logged.
func (h *MoodHandler) Frequency(w http.ResponseWriter, r *http.Request) {
	counts := h.engine.MoodFrequency()
	out := make([]FrequencyItem, 0, len(types.AllEmotions))
	for _, e := range types.AllEmotions {
		out = append(out, FrequencyItem{Emotion: e, Count: counts[e]})
	}
	core.Data(w, r, http.StatusOK, out)
}
