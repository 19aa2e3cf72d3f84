package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasklist-api/internal/domain"
)

// TaskStore defines persistence for tasks. Every method is scoped by owner:
// a task belonging to someone else is reported exactly like a missing one.
type TaskStore interface {
	// Create inserts a new task for ownerID and returns it with the
	// store-assigned ID and timestamps.
	Create(ctx context.Context, ownerID int64, in domain.TaskInput) (*domain.Task, error)

	// Update overwrites the writable fields of an active task and re-stamps
	// UpdatedAt. Returns ErrTaskNotFound if no active task matches.
	Update(ctx context.Context, id, ownerID int64, in domain.TaskInput) (*domain.Task, error)

	// SoftDelete stamps DeletedAt on an active task.
	// Returns ErrTaskNotFound if no active task matches.
	SoftDelete(ctx context.Context, id, ownerID int64) error

	// UpdateStatus sets the completion flag of an active task.
	// Returns ErrTaskNotFound if no active task matches.
	UpdateStatus(ctx context.Context, id, ownerID int64, completed bool) error

	// GetByID returns an active task. Returns ErrTaskNotFound otherwise.
	GetByID(ctx context.Context, id, ownerID int64) (*domain.Task, error)

	// ListByOwner returns the owner's active tasks, newest first.
	// Returns an empty slice when there are none.
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}

// AuditStore persists the append-only task audit trail.
type AuditStore interface {
	// Create inserts entry and sets its ID.
	Create(ctx context.Context, entry *domain.AuditEntry) error

	// ListByTask returns the owner's entries for one task, oldest first.
	ListByTask(ctx context.Context, taskID, ownerID int64) ([]*domain.AuditEntry, error)
}
