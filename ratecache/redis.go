package ratecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"exercises-server/exchange"
)

const keyPrefix = "rates:latest:"

// Cache keeps latest exchange rates in Redis for a fixed TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ exchange.RateCache = (*Cache)(nil)

// Connect opens a Redis client for addr and checks it with a ping.
// If addr is empty, Connect returns (nil, nil) and no caching occurs.
func Connect(ctx context.Context, addr string, db int, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	slog.Info("connected to Redis", "tag", "cache", "addr", addr, "ttl", ttl)
	return New(rdb, ttl), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key for a currency pair.
func Key(from, to string) string {
	return keyPrefix + from + ":" + to
}

// GetRate returns the cached rate for the pair, if present.
func (c *Cache) GetRate(ctx context.Context, from, to string) (float64, bool, error) {
	val, err := c.rdb.Get(ctx, Key(from, to)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	rate, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cached rate %q for %s: %w", val, Key(from, to), err)
	}
	return rate, true, nil
}

// SetRate stores rate for the pair with the cache TTL. A zero TTL disables caching.
func (c *Cache) SetRate(ctx context.Context, from, to string, rate float64) error {
	if c.ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, Key(from, to), strconv.FormatFloat(rate, 'g', -1, 64), c.ttl).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
