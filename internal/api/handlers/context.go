// Package handlers contains the HTTP handlers for the Lumera /v1 API. Each
// handler depends on a narrow interface over the engine so tests can swap in
// a mock.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumera/internal/core"
	"lumera/internal/types"
)

// ContextEngine is the slice of the engine that manages the current context.
type ContextEngine interface {
	RefreshContext(ctx context.Context) (types.ContextSnapshot, error)
	CurrentContext() (types.ContextSnapshot, bool)
}

// ContextHandler serves /v1/context.
type ContextHandler struct {
	engine ContextEngine
	logger *slog.Logger
}

// NewContextHandler creates a ContextHandler backed by the given engine.
func NewContextHandler(e ContextEngine, l *slog.Logger) *ContextHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ContextHandler{engine: e, logger: l}
}

// RegisterRoutes mounts the context routes.
func (h *ContextHandler) RegisterRoutes(r chi.Router) {
	r.Route("/context", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/refresh", h.Refresh)
	})
}

// Refresh re-resolves location and weather.
func (h *ContextHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.RefreshContext(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "context refresh failed", "error", err)
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, snap)
}

// Get returns the last resolved context, or 409 before the first refresh.
func (h *ContextHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.engine.CurrentContext()
	if !ok {
		core.Error(w, r, types.ErrContextUnavailable)
		return
	}
	core.Data(w, r, http.StatusOK, snap)
}
