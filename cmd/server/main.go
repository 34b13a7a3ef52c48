package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cx-tal-miterani/flight-assistant/internal/app"
	"github.com/cx-tal-miterani/flight-assistant/internal/config"
	"github.com/cx-tal-miterani/flight-assistant/internal/handlers"
	"github.com/cx-tal-miterani/flight-assistant/internal/logging"
	"github.com/cx-tal-miterani/flight-assistant/internal/router"
	"github.com/cx-tal-miterani/flight-assistant/internal/service"
	"github.com/cx-tal-miterani/flight-assistant/internal/websocket"
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

	// Bookings are read from Postgres; the API still serves sessions without it
	var bookings service.BookingReader
	pool, repo, err := app.OpenDatabase(ctx, cfg.Database.URL)
	if err != nil {
		logger.Warn("Database unavailable, booking lookups are disabled", "error", err)
	} else {
		defer pool.Close()
		bookings = repo
		logger.Info("Connected to database")
	}

	temporalClient, err := app.DialTemporal(cfg.Temporal, logger)
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	assistantService := service.NewAssistantService(temporalClient, bookings,
		service.WithTaskQueue(cfg.Temporal.TaskQueue),
		service.WithShortlistSize(cfg.Pipeline.ShortlistSize),
		service.WithIdleTimeout(cfg.Pipeline.IdleTimeout))

	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	h := handlers.NewHandler(assistantService, hub)
	r := router.SetupRouter(h, websocket.NewHandler(hub, assistantService, websocket.DefaultPollInterval, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port, "temporal", cfg.Temporal.Host)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
