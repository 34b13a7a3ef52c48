package main

import (
	"context"
	"flag"
	"os"

	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/worker"

	"github.com/cx-tal-miterani/flight-assistant/internal/activities"
	"github.com/cx-tal-miterani/flight-assistant/internal/app"
	"github.com/cx-tal-miterani/flight-assistant/internal/config"
	"github.com/cx-tal-miterani/flight-assistant/internal/display"
	"github.com/cx-tal-miterani/flight-assistant/internal/invitations"
	"github.com/cx-tal-miterani/flight-assistant/internal/logging"
	"github.com/cx-tal-miterani/flight-assistant/internal/observability"
	"github.com/cx-tal-miterani/flight-assistant/internal/workflows"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New("error", "text", os.Stderr).Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	ctx := context.Background()

	adapters := app.NewAdapters(cfg, logger)
	defer adapters.Close()

	providers := observability.NewProviders(logger)
	otel.SetMeterProvider(providers.Meter)
	otel.SetTracerProvider(providers.Tracer)
	defer func() {
		if series, err := providers.Snapshot(ctx); err == nil {
			logger.Info("Worker metrics\n" + display.Metrics(series))
		}
		_ = providers.Shutdown(ctx)
	}()

	metrics, err := observability.NewMetricsRecorder(otel.GetMeterProvider())
	if err != nil {
		logger.Error("Failed to create metrics", "error", err)
		os.Exit(1)
	}

	acts := &activities.Activities{
		Searcher: adapters.Searcher,
		Calendar: adapters.Calendar,
		Ranker:   adapters.Ranker,
		Metrics:  metrics,
	}

	logger.Info("Connecting to database")
	pool, repo, err := app.OpenDatabase(ctx, cfg.Database.URL)
	if err != nil {
		logger.Warn("Database unavailable, sessions and bookings are not persisted", "error", err)
	} else {
		defer pool.Close()
		acts.Store = repo
		acts.Invitations = invitations.NewScanner(adapters.Oracle, repo, logger)
		logger.Info("Connected to database")
	}

	c, err := app.DialTemporal(cfg.Temporal, logger)
	if err != nil {
		logger.Error("Failed to connect to Temporal", "error", err)
		os.Exit(1)
	}
	defer c.Close()
	logger.Info("Connected to Temporal", "host", cfg.Temporal.Host)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.AssistantWorkflow)
	w.RegisterWorkflow(workflows.SearchWorkflow)
	w.RegisterActivity(acts)

	logger.Info("Starting Temporal worker", "taskQueue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
}
