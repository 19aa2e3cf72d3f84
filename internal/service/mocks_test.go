package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/phrazzld/tasklist-api/internal/cache"
	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/events"
	"github.com/phrazzld/tasklist-api/internal/lock"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository mocks the TaskRepository interface.
// WithTx returns the mock itself so expectations hold inside transactions.
type MockTaskRepository struct {
	mock.Mock
	db *sql.DB
}

func (m *MockTaskRepository) Create(ctx context.Context, ownerID int64, in domain.TaskInput) (*domain.Task, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(
	ctx context.Context,
	id, ownerID int64,
	in domain.TaskInput,
) (*domain.Task, error) {
	args := m.Called(ctx, id, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) SoftDelete(ctx context.Context, id, ownerID int64) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, id, ownerID int64, completed bool) error {
	args := m.Called(ctx, id, ownerID, completed)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id, ownerID int64) (*domain.Task, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) WithTx(_ *sql.Tx) TaskRepository {
	return m
}

func (m *MockTaskRepository) DB() *sql.DB {
	return m.db
}

// MockAuditStore mocks store.AuditStore.
type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Create(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditStore) ListByTask(ctx context.Context, taskID, ownerID int64) ([]*domain.AuditEntry, error) {
	args := m.Called(ctx, taskID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditEntry), args.Error(1)
}

// stepRecorder collects the externally visible steps of an operation in
// the order they happened.
type stepRecorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *stepRecorder) add(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *stepRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

// recordingCache wraps a real cache and records writes. onWrite runs before
// every Set or Delete.
type recordingCache struct {
	cache.Cache
	rec     *stepRecorder
	onWrite func()
}

func (c *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.onWrite != nil {
		c.onWrite()
	}
	c.rec.add("cache.set " + key)
	return c.Cache.Set(ctx, key, value, ttl)
}

func (c *recordingCache) Delete(ctx context.Context, key string) error {
	if c.onWrite != nil {
		c.onWrite()
	}
	c.rec.add("cache.delete " + key)
	return c.Cache.Delete(ctx, key)
}

// recordingLocker wraps a real locker and records acquire and release.
type recordingLocker struct {
	lock.Locker
	rec *stepRecorder
}

func (l *recordingLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token, err := l.Locker.TryAcquire(ctx, key, ttl)
	if err == nil {
		l.rec.add("lock.acquire " + key)
	}
	return token, err
}

func (l *recordingLocker) Release(ctx context.Context, key, token string) error {
	l.rec.add("lock.release " + key)
	return l.Locker.Release(ctx, key, token)
}

// failingCache fails every call.
type failingCache struct{}

var errCacheDown = errors.New("cache unavailable")

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (failingCache) Delete(context.Context, string) error { return errCacheDown }

// failingLocker fails every call with a backend error.
type failingLocker struct{}

var errLockDown = errors.New("lock backend unavailable")

func (failingLocker) TryAcquire(context.Context, string, time.Duration) (string, error) {
	return "", errLockDown
}
func (failingLocker) Release(context.Context, string, string) error { return errLockDown }

// recordingDispatcher keeps every dispatched audit event.
type recordingDispatcher struct {
	mu     sync.Mutex
	rec    *stepRecorder
	events []*events.TaskAuditEvent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event events.Event) {
	e, ok := event.(*events.TaskAuditEvent)
	if !ok {
		return
	}
	if d.rec != nil {
		d.rec.add("dispatch " + e.Message)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) messages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Message)
	}
	return out
}
