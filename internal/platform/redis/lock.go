package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasklist-api/internal/lock"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token,
// so a holder whose lock expired cannot free a lock someone else now owns.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements lock.Locker with SET NX PX and a compare-and-delete script.
type Locker struct {
	client LockClient
	logger *slog.Logger
}

var _ lock.Locker = (*Locker)(nil)

// LockClient is the part of a go-redis client the locker needs.
type LockClient interface {
	goredis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *goredis.BoolCmd
}

// NewLocker creates a Redis-backed lock. If logger is nil, slog.Default() is used.
func NewLocker(client LockClient, logger *slog.Logger) *Locker {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		client: client,
		logger: logger.With(slog.String("component", "redis_locker")),
	}
}

// TryAcquire implements lock.Locker.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return "", lock.ErrNotAcquired
	}

	logger.FromContextOrDefault(ctx, l.logger).Debug("lock acquired",
		slog.String("key", key),
		slog.Duration("ttl", ttl))
	return token, nil
}

// Release implements lock.Locker. A token that no longer owns the key is
// ignored.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	if deleted == 0 {
		logger.FromContextOrDefault(ctx, l.logger).Debug("lock already expired or taken over",
			slog.String("key", key))
	}
	return nil
}
