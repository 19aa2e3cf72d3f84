package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasklist-api/internal/lock"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
)

// TaskLocks scopes the lock port to single tasks.
// Only one task is ever locked per operation; owner lists are never locked.
type TaskLocks struct {
	locker lock.Locker
	keys   KeyScheme
	ttl    time.Duration
	logger *slog.Logger
}

// NewTaskLocks creates the helper. ttl bounds how long a crashed holder can
// block a task.
func NewTaskLocks(locker lock.Locker, keys KeyScheme, ttl time.Duration, logger *slog.Logger) *TaskLocks {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskLocks{
		locker: locker,
		keys:   keys,
		ttl:    ttl,
		logger: logger.With("component", "task_locks"),
	}
}

// Key returns the lock key of a task.
func (l *TaskLocks) Key(taskID, ownerID int64) string {
	return l.keys.Lock(taskID, ownerID)
}

// TryLock takes the task's lock without waiting. Contention returns
// ErrTaskLocked. A failing lock backend is logged and also reported as
// ErrTaskLocked, so the caller may retry.
func (l *TaskLocks) TryLock(ctx context.Context, taskID, ownerID int64) (string, error) {
	key := l.Key(taskID, ownerID)

	token, err := l.locker.TryAcquire(ctx, key, l.ttl)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, lock.ErrNotAcquired) {
		logger.FromContextOrDefault(ctx, l.logger).Error("lock backend failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return "", ErrTaskLocked
}

// ReleaseLock frees the task's lock. It never fails: an error is logged and
// the lock expires on its own after the ttl. The release is not bound to
// ctx's cancellation so an aborted request still frees its lock.
func (l *TaskLocks) ReleaseLock(ctx context.Context, taskID, ownerID int64, token string) {
	key := l.Key(taskID, ownerID)
	if err := l.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
		logger.FromContextOrDefault(ctx, l.logger).Warn("failed to release lock",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
