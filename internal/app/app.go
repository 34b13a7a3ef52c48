// Package app builds the adapters every binary shares from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"

	"github.com/cx-tal-miterani/flight-assistant/internal/calendar"
	"github.com/cx-tal-miterani/flight-assistant/internal/config"
	"github.com/cx-tal-miterani/flight-assistant/internal/database"
	"github.com/cx-tal-miterani/flight-assistant/internal/logging"
	"github.com/cx-tal-miterani/flight-assistant/internal/oracle"
	"github.com/cx-tal-miterani/flight-assistant/internal/provider"
	"github.com/cx-tal-miterani/flight-assistant/internal/ranking"
)

// Adapters are the external collaborators of a session
type Adapters struct {
	Searcher provider.Searcher
	Calendar calendar.Source
	Oracle   *oracle.Client
	Ranker   *ranking.Ranker

	redis *redis.Client
}

// NewAdapters wires the flight search (cached when Redis is configured),
// the calendar source and the ranking oracle
func NewAdapters(cfg *config.Config, logger *slog.Logger) *Adapters {
	a := &Adapters{}

	var searcher provider.Searcher = provider.NewSerpAPI(provider.Options{
		BaseURL:           cfg.Search.BaseURL,
		APIKey:            cfg.Search.APIKey,
		Timeout:           cfg.Search.Timeout,
		RequestsPerSecond: cfg.Search.RequestsPerSecond,
		Burst:             cfg.Search.Burst,
	})
	if cfg.Redis.Addr != "" {
		a.redis = provider.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		searcher = provider.NewCachedSearcher(searcher, a.redis, cfg.Redis.TTL, logger)
		logger.Info("Search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}
	a.Searcher = searcher

	a.Calendar = NewCalendar(cfg.Calendar, logger)

	a.Oracle = oracle.NewClient(oracle.Options{
		BaseURL:     cfg.Oracle.BaseURL,
		APIKey:      cfg.Oracle.APIKey,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Oracle.Temperature,
		Timeout:     cfg.Oracle.Timeout,
	})
	a.Ranker = ranking.NewRanker(a.Oracle, cfg.Pipeline.ShortlistSize, logger)
	return a
}

// NewCalendar picks the busy-interval source: a local file first, then
// Google Calendar, otherwise none
func NewCalendar(cfg config.CalendarConfig, logger *slog.Logger) calendar.Source {
	switch {
	case cfg.File != "":
		logger.Info("Using calendar file", "path", cfg.File)
		return calendar.NewFileSource(cfg.File)
	case cfg.Token != "":
		logger.Info("Using Google Calendar", "calendarId", cfg.CalendarID)
		return calendar.NewGoogleClient(cfg.BaseURL, cfg.CalendarID, cfg.Token, cfg.Timeout)
	default:
		logger.Info("No calendar configured, calendar filtering is skipped")
		return calendar.NopSource{}
	}
}

// Close releases the Redis connection, if any
func (a *Adapters) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

// OpenDatabase connects to Postgres, creates missing tables and returns
// the repository over the pool
func OpenDatabase(ctx context.Context, url string) (*pgxpool.Pool, *database.Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := database.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, repo, nil
}

// DialTemporal connects to the Temporal frontend with the shared logger
func DialTemporal(cfg config.TemporalConfig, logger *slog.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Host,
		Namespace: cfg.Namespace,
		Logger:    logging.Temporal(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal at %s: %w", cfg.Host, err)
	}
	return c, nil
}
