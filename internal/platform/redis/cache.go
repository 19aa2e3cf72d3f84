package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasklist-api/internal/cache"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	goredis "github.com/redis/go-redis/v9"
)

// Cache implements cache.Cache with plain Redis strings.
type Cache struct {
	client goredis.Cmdable
	logger *slog.Logger
}

var _ cache.Cache = (*Cache)(nil)

// NewCache creates a Redis-backed cache. If logger is nil, slog.Default() is used.
func NewCache(client goredis.Cmdable, logger *slog.Logger) *Cache {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client: client,
		logger: logger.With(slog.String("component", "redis_cache")),
	}
}

// Get implements cache.Cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("redis get failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set implements cache.Cache.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements cache.Cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
