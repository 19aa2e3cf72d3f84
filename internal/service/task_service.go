package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasklist-api/internal/cache"
	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/events"
	"github.com/phrazzld/tasklist-api/internal/lock"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// Defaults for TaskServiceOptions.
const (
	DefaultCacheTTL = 30 * time.Minute
	DefaultLockTTL  = 60 * time.Second
)

// TaskService provides the task operations of one owner.
// The owner is always passed explicitly; nothing is read from ambient state.
type TaskService interface {
	// ListByOwner returns the owner's active tasks, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	// GetByID returns one active task of the owner or ErrTaskNotFound.
	GetByID(ctx context.Context, taskID, ownerID int64) (*domain.Task, error)

	// Create stores a new task. It is not lock-guarded: the task has no ID
	// until the insert assigns one.
	Create(ctx context.Context, ownerID int64, in domain.TaskInput) (*domain.Task, error)

	// Update overwrites the task's writable fields.
	Update(ctx context.Context, taskID, ownerID int64, in domain.TaskInput) (*domain.Task, error)

	// Delete soft-deletes the task.
	Delete(ctx context.Context, taskID, ownerID int64) error

	// UpdateStatus sets the completion flag and returns the stored value.
	UpdateStatus(ctx context.Context, taskID, ownerID int64, completed bool) (bool, error)
}

// TaskServiceOptions tunes key derivation and expiry.
type TaskServiceOptions struct {
	Keys     KeyScheme
	CacheTTL time.Duration
	LockTTL  time.Duration
}

// taskServiceImpl implements TaskService.
//
// Every mutation of an existing task runs the same sequence: take the task
// lock, run the write in a transaction, invalidate the cache after commit,
// dispatch the audit event, release the lock. A failed step skips the steps
// after it but the lock is always released.
type taskServiceImpl struct {
	repo       TaskRepository
	cache      cache.Cache
	locks      *TaskLocks
	dispatcher events.Dispatcher
	keys       KeyScheme
	cacheTTL   time.Duration
	logger     *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	repo TaskRepository,
	c cache.Cache,
	locker lock.Locker,
	dispatcher events.Dispatcher,
	opts TaskServiceOptions,
	logger *slog.Logger,
) (TaskService, error) {
	switch {
	case repo == nil:
		return nil, missingDependency("repo")
	case c == nil:
		return nil, missingDependency("cache")
	case locker == nil:
		return nil, missingDependency("locker")
	case dispatcher == nil:
		return nil, missingDependency("dispatcher")
	}

	if logger == nil {
		logger = slog.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}

	return &taskServiceImpl{
		repo:       repo,
		cache:      c,
		locks:      NewTaskLocks(locker, opts.Keys, opts.LockTTL, logger),
		dispatcher: dispatcher,
		keys:       opts.Keys,
		cacheTTL:   opts.CacheTTL,
		logger:     logger.With("component", "task_service"),
	}, nil
}

// ListByOwner implements TaskService.ListByOwner.
func (s *taskServiceImpl) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	key := s.keys.OwnerScope(ownerID)

	var tasks []*domain.Task
	if s.readCache(ctx, key, &tasks) {
		return tasks, nil
	}

	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.log(ctx).Error("failed to list tasks",
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	s.writeCache(ctx, key, tasks)
	return tasks, nil
}

// GetByID implements TaskService.GetByID.
func (s *taskServiceImpl) GetByID(ctx context.Context, taskID, ownerID int64) (*domain.Task, error) {
	key := s.keys.ResourceScope(taskID, ownerID)

	var task domain.Task
	if s.readCache(ctx, key, &task) {
		return &task, nil
	}

	found, err := s.repo.GetByID(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.log(ctx).Error("failed to get task",
			slog.Int64("task_id", taskID),
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("get_task", "failed to get task", err)
	}

	s.writeCache(ctx, key, found)
	return found, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(ctx context.Context, ownerID int64, in domain.TaskInput) (*domain.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Task
	err := store.RunInTransaction(ctx, s.repo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		t, err := s.repo.WithTx(tx).Create(ctx, ownerID, in)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		s.log(ctx).Error("failed to create task",
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "failed to create task", err)
	}

	committed := context.WithoutCancel(ctx)
	s.refresh(committed, created)
	s.publish(committed, created.ID, ownerID, domain.AuditTaskCreated)

	s.log(ctx).Info("task created",
		slog.Int64("task_id", created.ID),
		slog.Int64("owner_id", ownerID))
	return created, nil
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	taskID, ownerID int64,
	in domain.TaskInput,
) (*domain.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Task
	err := s.mutate(ctx, "update_task", taskID, ownerID, func(ctx context.Context, repo TaskRepository) error {
		t, err := repo.Update(ctx, taskID, ownerID, in)
		if err != nil {
			return err
		}
		updated = t
		return nil
	}, func(ctx context.Context) {
		s.refresh(ctx, updated)
		s.publish(ctx, taskID, ownerID, domain.AuditTaskUpdated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, taskID, ownerID int64) error {
	return s.mutate(ctx, "delete_task", taskID, ownerID, func(ctx context.Context, repo TaskRepository) error {
		return repo.SoftDelete(ctx, taskID, ownerID)
	}, func(ctx context.Context) {
		s.evict(ctx, taskID, ownerID)
		s.publish(ctx, taskID, ownerID, domain.AuditTaskDeleted)
	})
}

// UpdateStatus implements TaskService.UpdateStatus.
func (s *taskServiceImpl) UpdateStatus(ctx context.Context, taskID, ownerID int64, completed bool) (bool, error) {
	err := s.mutate(ctx, "update_task_status", taskID, ownerID, func(ctx context.Context, repo TaskRepository) error {
		return repo.UpdateStatus(ctx, taskID, ownerID, completed)
	}, func(ctx context.Context) {
		s.evict(ctx, taskID, ownerID)
		s.publish(ctx, taskID, ownerID, domain.AuditStatusMessage(completed))
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

// mutate takes the task lock, runs write in a transaction and, only once the
// transaction has committed, runs afterCommit. The lock is held until
// afterCommit returns and is released on every path. afterCommit gets a
// context that outlives the caller's cancellation: a committed write must
// still reach the cache and the audit trail.
func (s *taskServiceImpl) mutate(
	ctx context.Context,
	operation string,
	taskID, ownerID int64,
	write func(ctx context.Context, repo TaskRepository) error,
	afterCommit func(ctx context.Context),
) error {
	token, err := s.locks.TryLock(ctx, taskID, ownerID)
	if err != nil {
		s.log(ctx).Info("task is locked by another writer",
			slog.String("operation", operation),
			slog.Int64("task_id", taskID),
			slog.Int64("owner_id", ownerID))
		return err
	}
	defer s.locks.ReleaseLock(ctx, taskID, ownerID, token)

	err = store.RunInTransaction(ctx, s.repo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		return write(ctx, s.repo.WithTx(tx))
	})
	if err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			s.log(ctx).Error("task write failed",
				slog.String("operation", operation),
				slog.Int64("task_id", taskID),
				slog.Int64("owner_id", ownerID),
				slog.String("error", err.Error()))
		}
		return NewTaskServiceError(operation, "failed to write task", err)
	}

	afterCommit(context.WithoutCancel(ctx))
	return nil
}

// readCache decodes the payload under key into dst. Any failure counts as a
// miss; an undecodable payload is dropped so the next read repopulates it.
func (s *taskServiceImpl) readCache(ctx context.Context, key string, dst any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log(ctx).Warn("cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return false
	}
	if err := cache.Unmarshal(data, dst); err != nil {
		s.log(ctx).Warn("discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		s.deleteKey(ctx, key)
		return false
	}
	return true
}

func (s *taskServiceImpl) writeCache(ctx context.Context, key string, v any) {
	data, err := cache.Marshal(v)
	if err != nil {
		s.log(ctx).Warn("failed to encode cache value",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.log(ctx).Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

func (s *taskServiceImpl) deleteKey(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log(ctx).Warn("cache delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// refresh drops the owner's list and stores the new state of task.
func (s *taskServiceImpl) refresh(ctx context.Context, task *domain.Task) {
	s.deleteKey(ctx, s.keys.OwnerScope(task.OwnerID))
	s.writeCache(ctx, s.keys.ResourceScope(task.ID, task.OwnerID), task)
}

// evict drops both the owner's list and the task entry.
func (s *taskServiceImpl) evict(ctx context.Context, taskID, ownerID int64) {
	s.deleteKey(ctx, s.keys.OwnerScope(ownerID))
	s.deleteKey(ctx, s.keys.ResourceScope(taskID, ownerID))
}

func (s *taskServiceImpl) publish(ctx context.Context, taskID, ownerID int64, message string) {
	s.dispatcher.Dispatch(ctx, events.NewTaskAuditEvent(taskID, ownerID, message))
}

func (s *taskServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}
