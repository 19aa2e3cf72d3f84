package service

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// TaskRepository is the persistence view TaskService needs: the store
// operations, a way to rebind them to a transaction, and the database that
// opens transactions.
type TaskRepository interface {
	Create(ctx context.Context, ownerID int64, in domain.TaskInput) (*domain.Task, error)
	Update(ctx context.Context, id, ownerID int64, in domain.TaskInput) (*domain.Task, error)
	SoftDelete(ctx context.Context, id, ownerID int64) error
	UpdateStatus(ctx context.Context, id, ownerID int64, completed bool) error
	GetByID(ctx context.Context, id, ownerID int64) (*domain.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	WithTx(tx *sql.Tx) TaskRepository
	DB() *sql.DB
}

// NewTaskRepositoryAdapter lets a store.TaskStore serve as a TaskRepository.
func NewTaskRepositoryAdapter(taskStore store.TaskStore, db *sql.DB) TaskRepository {
	return &taskRepositoryAdapter{TaskStore: taskStore, db: db}
}

type taskRepositoryAdapter struct {
	store.TaskStore
	db *sql.DB
}

// WithTx implements TaskRepository.WithTx.
func (a *taskRepositoryAdapter) WithTx(tx *sql.Tx) TaskRepository {
	return &taskRepositoryAdapter{TaskStore: a.TaskStore.WithTx(tx), db: a.db}
}

// DB implements TaskRepository.DB.
func (a *taskRepositoryAdapter) DB() *sql.DB {
	return a.db
}
