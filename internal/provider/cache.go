package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// RedisClient is the subset of the go-redis client the cache needs
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// NewRedisClient connects to a Redis server
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// CachedSearcher serves repeated queries from Redis. Cache failures are
// logged and fall through to the wrapped searcher; failed searches are
// never cached.
type CachedSearcher struct {
	next   Searcher
	rdb    RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSearcher wraps next with a Redis cache
func NewCachedSearcher(next Searcher, rdb RedisClient, ttl time.Duration, logger *slog.Logger) *CachedSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// CacheKey identifies a query in the cache
func CacheKey(q models.SearchQuery) string {
	return fmt.Sprintf("flights:search:%s:%s:%s:%s:%s:%d",
		strings.ToUpper(q.DepartureCode), strings.ToUpper(q.ArrivalCode),
		q.OutboundDate, q.ReturnDate, strings.ToUpper(q.Currency), q.SortBy)
}

// Search implements Searcher
func (c *CachedSearcher) Search(ctx context.Context, q models.SearchQuery) (models.RawSearchResult, error) {
	key := CacheKey(q)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var res models.RawSearchResult
		if jerr := json.Unmarshal([]byte(cached), &res); jerr == nil {
			c.logger.Debug("search cache hit", slog.String("key", key))
			return res, nil
		}
		c.logger.Warn("discarding corrupt search cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("search cache unavailable", slog.String("error", err.Error()))
	}

	res, err := c.next.Search(ctx, q)
	if err != nil {
		return res, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return res, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to store search result", slog.String("key", key), slog.String("error", err.Error()))
	}
	return res, nil
}
