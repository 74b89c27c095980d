package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StreamHandler mounts the WebSocket event stream at /v1/stream.
type StreamHandler struct {
	hub http.Handler
}

// NewStreamHandler serves the live event stream from hub.
func NewStreamHandler(hub http.Handler) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// RegisterRoutes mounts the stream route.
func (h *StreamHandler) RegisterRoutes(r chi.Router) {
	r.Method(http.MethodGet, "/stream", h.hub)
}
