// Package core provides the HTTP chassis for the Lumera engine: a chi router
// with the cross-cutting middleware (panic recovery, request ids, logging,
// CORS, timeouts), the JSON envelope helpers, request validation, and the
// health endpoint. Domain handlers are mounted through V1RouteRegistrars.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumera/internal/config"
)

// Server holds the router and the dependencies shared by all routes.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	HealthProbes []HealthProbe
	// V1RouteRegistrars mount domain routes under /v1. They are populated by
	// main so that core does not import the handler packages.
	V1RouteRegistrars []func(r chi.Router)

	router *chi.Mux
}

// NewServer creates a Server. Routes are mounted separately by MountRoutes so
// tests can customise registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// HTTPServer builds the *http.Server listening on the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.Config.Server.ReadTimeout,
		WriteTimeout: s.Config.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(s.Logger.Handler(), slog.LevelWarn),
	}
}

// Shutdown gracefully stops srv, waiting for in-flight requests until ctx
// expires.
func (s *Server) Shutdown(ctx context.Context, srv *http.Server) error {
	s.Logger.Info("server shutdown initiated")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.Logger.Info("server shutdown complete")
	return nil
}
