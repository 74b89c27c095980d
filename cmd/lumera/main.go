// Command lumera runs the mood tracking and prediction engine behind an HTTP
// API. Configuration comes from the environment (see internal/config).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"lumera/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(nil)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("lumera starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"inference", cfg.Inference.Provider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("closing resources", "error", err)
		}
	}()

	// An initial context lets moods be logged right away. Failure is not
	// fatal; clients can retry through POST /v1/context/refresh.
	if _, err := a.engine.RefreshContext(ctx); err != nil {
		logger.Warn("initial context refresh failed", "error", err)
	}

	return serve(ctx, a, cfg, logger)
}

// serve runs the HTTP server and the proactive runner until ctx is cancelled
// or the server fails, then shuts both down.
func serve(ctx context.Context, a *app, cfg *config.Config, logger *slog.Logger) error {
	httpServer := a.server.HTTPServer()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	runCtx, cancelRunner := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if a.runner != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.runner.Run(runCtx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	cancelRunner()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx, httpServer); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// newLogger creates a JSON slog.Logger for the given level name.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
