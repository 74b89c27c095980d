package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"

	"lumera/internal/api/handlers"
	"lumera/internal/config"
	"lumera/internal/core"
	"lumera/internal/engine"
	"lumera/internal/external"
	"lumera/internal/ledger"
	"lumera/internal/metrics"
	"lumera/internal/notify"
	"lumera/internal/predict"
	"lumera/internal/scheduler"
	"lumera/internal/store"
	"lumera/internal/types"
)

// app is the fully wired process: HTTP server, engine, and the optional
// proactive runner.
type app struct {
	server  *core.Server
	engine  *engine.Engine
	runner  *scheduler.ProactiveRunner
	hub     *notify.Hub
	closers []io.Closer
}

// Close releases the store and the WebSocket hub.
func (a *app) Close() error {
	if a.hub != nil {
		a.hub.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp wires every component from cfg. On error, anything opened so far
// is closed.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	blobs, closer, err := store.Open(ctx, store.Options{
		Driver:      cfg.Storage.Driver,
		SQLitePath:  cfg.Storage.SQLitePath,
		DatabaseURL: cfg.Storage.DatabaseURL.Unmask(),
		Compress:    cfg.Storage.Compress,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.closers = append(a.closers, closer)

	moods, err := ledger.NewMoodLedger(ctx, blobs, logger)
	if err != nil {
		return nil, fmt.Errorf("loading mood history: %w", err)
	}
	predictions, err := ledger.NewPredictionLedger(ctx, blobs, logger)
	if err != nil {
		return nil, fmt.Errorf("loading prediction history: %w", err)
	}

	clients, err := external.NewClientRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building external clients: %w", err)
	}

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		awsCfg, err = loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
	}

	var sinks []notify.Sink
	if cfg.Notify.WebSocketEnable {
		a.hub = notify.NewHub(notify.HubOptions{}, logger)
		sinks = append(sinks, a.hub)
	}
	if cfg.Notify.SQSQueueURL != "" {
		sinks = append(sinks, notify.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.Notify.SQSQueueURL, logger))
	}
	fanout := notify.NewFanout(logger, sinks...)

	var recorder metrics.Recorder = metrics.NoopMetrics{}
	if cfg.Observability.CloudWatchEnable {
		recorder = metrics.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, logger)
	}

	loc, err := cfg.Engine.LoadLocation()
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	snapshots := types.NewSnapshotFactory(types.RealClock{}, types.LocalePolicy{
		Location:  loc,
		Use24Hour: cfg.Engine.Use24HourClock,
	})

	slots := predict.NewSlots()
	orchestrator := predict.NewOrchestrator(predict.OrchestratorConfig{
		Moods:       moods,
		Predictions: predictions,
		Inference:   clients.Inference,
		Observer:    fanout,
		Metrics:     recorder,
		Logger:      logger,
	})
	feedback := predict.NewFeedbackApplier(predictions, slots, fanout, logger)

	a.engine = engine.New(engine.Config{
		Moods:            moods,
		Predictions:      predictions,
		Orchestrator:     orchestrator,
		Feedback:         feedback,
		Slots:            slots,
		Location:         clients.Location,
		Weather:          clients.Weather,
		Snapshots:        snapshots,
		MinManualHistory: cfg.Engine.MinManualHistory,
		Logger:           logger,
	})

	if cfg.Engine.ProactiveEnabled {
		policy := scheduler.NewTriggerPolicy(scheduler.PolicyConfig{
			Moods:                   moods,
			Predictor:               orchestrator,
			Alerts:                  slots,
			Location:                clients.Location,
			Weather:                 clients.Weather,
			Snapshots:               snapshots,
			SignificantLogCount:     cfg.Engine.SignificantLogCount,
			SignificantRadiusMeters: cfg.Engine.SignificantRadiusMeters,
			DebounceWindow:          cfg.Engine.DebounceWindow,
			Logger:                  logger,
		})
		a.runner = scheduler.NewProactiveRunner(scheduler.RunnerConfig{
			Policy:   policy,
			Interval: cfg.Engine.TickInterval,
			Metrics:  recorder,
			Logger:   logger,
		})
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = []core.HealthProbe{
		core.ProbeFunc{ProbeName: "store", Fn: func(ctx context.Context) error {
			_, _, err := blobs.Get(ctx, types.MoodHistoryKey)
			return err
		}},
	}
	srv.V1RouteRegistrars = registrars(a, srv.Validator, logger)
	srv.MountRoutes()
	a.server = srv

	return a, nil
}

func registrars(a *app, v *core.Validator, logger *slog.Logger) []func(chi.Router) {
	out := []func(chi.Router){
		handlers.NewContextHandler(a.engine, logger).RegisterRoutes,
		handlers.NewMoodHandler(a.engine, v, logger).RegisterRoutes,
		handlers.NewPredictionHandler(a.engine, v, logger).RegisterRoutes,
		handlers.NewAlertHandler(a.engine, logger).RegisterRoutes,
	}
	if a.hub != nil {
		out = append(out, handlers.NewStreamHandler(a.hub).RegisterRoutes)
	}
	return out
}

func loadAWSConfig(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.EndpointURL != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(c.EndpointURL))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}
