package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasklist-api/internal/cache"
	"github.com/phrazzld/tasklist-api/internal/config"
	"github.com/phrazzld/tasklist-api/internal/lock"
	"github.com/phrazzld/tasklist-api/internal/platform/memory"
	"github.com/phrazzld/tasklist-api/internal/platform/redis"
)

// coordination bundles the cache and lock backends of the task service.
type coordination struct {
	cache  cache.Cache
	locker lock.Locker
	close  func() error
}

// newCoordination builds the configured backend. The redis backend shares
// one client between cache and locks.
func newCoordination(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*coordination, error) {
	switch cfg.Coordination.Backend {
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("redis coordination backend connected")
		return &coordination{
			cache:  redis.NewCache(client, logger),
			locker: redis.NewLocker(client, logger),
			close:  client.Close,
		}, nil

	case config.BackendMemory:
		logger.Warn("in-process coordination backend selected; locks only hold within this instance")
		return &coordination{
			cache: memory.NewCache(memory.CacheConfig{
				Capacity:  cfg.Coordination.MemoryCapacity,
				NumShards: cfg.Coordination.MemoryShards,
				MaxTTL:    cfg.Coordination.CacheTTL,
			}),
			locker: memory.NewLocker(),
			close:  func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown coordination backend %q", cfg.Coordination.Backend)
	}
}
