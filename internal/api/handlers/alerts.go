package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumera/internal/core"
	"lumera/internal/types"
)

// AlertEngine exposes the live alert slot.
type AlertEngine interface {
	LiveAlert() (types.PredictionRecord, bool)
	DismissAlert() bool
}

var errNoLiveAlert = types.NewAppError(types.ErrCodeNotFoundAlert, "no live alert is shown", nil)

// AlertHandler serves /v1/alerts.
type AlertHandler struct {
	engine AlertEngine
	logger *slog.Logger
}

// NewAlertHandler creates an AlertHandler backed by the given engine.
func NewAlertHandler(e AlertEngine, l *slog.Logger) *AlertHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AlertHandler{engine: e, logger: l}
}

// RegisterRoutes mounts the alert routes.
func (h *AlertHandler) RegisterRoutes(r chi.Router) {
	r.Get("/alerts/live", h.Live)
	r.Delete("/alerts/live", h.Dismiss)
}

// Live returns the proactive alert currently shown.
func (h *AlertHandler) Live(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.engine.LiveAlert()
	if !ok {
		core.Error(w, r, errNoLiveAlert)
		return
	}
	core.Data(w, r, http.StatusOK, rec)
}

// Dismiss clears the live alert.
func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	if !h.engine.DismissAlert() {
		core.Error(w, r, errNoLiveAlert)
		return
	}
	h.logger.InfoContext(r.Context(), "live alert dismissed")
	w.WriteHeader(http.StatusNoContent)
}
