// Package cache provides the Redis access layer for the catalog: product
// snapshot hashes written by ingest, live per-product click counters, and the
// connection the stats stream rides on.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool fallbacks applied when config leaves sizing unset. The daemon holds
// one client shared by the snapshot cache, the counters and the click event
// stream, so the pool must cover worker batches plus serving reads.
const (
	defaultPoolSize     = 16
	defaultMinIdleConns = 2

	poolTimeout     = 4 * time.Second
	connMaxIdleTime = 5 * time.Minute
)

// Cache provides Redis access methods for product snapshots and counters.
type Cache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection. Pool sizing comes from
// config; zero or negative values fall back to the package defaults.
func New(ctx context.Context, redisURL string, poolSize, minIdleConns int) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	applyPoolOptions(opt, poolSize, minIdleConns)

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// applyPoolOptions overlays pool tuning onto parsed connection options.
func applyPoolOptions(opt *redis.Options, poolSize, minIdleConns int) {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	if minIdleConns <= 0 {
		minIdleConns = defaultMinIdleConns
	}
	if minIdleConns > poolSize {
		minIdleConns = poolSize
	}

	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = connMaxIdleTime
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for the stream pipeline.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}
