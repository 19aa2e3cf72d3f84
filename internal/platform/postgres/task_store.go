package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/store"
)

const taskColumns = `id, owner_id, title, description, is_completed, due_date, created_at, updated_at, deleted_at`

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
// Every statement is scoped to the owner and to rows that are not
// soft-deleted, so a foreign task behaves exactly like a missing one.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a task store over a pool or a transaction.
// If logger is nil, slog.Default() is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: constructor argument check
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// WithTx implements store.TaskStore.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, ownerID int64, in domain.TaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		log.Warn("task validation failed during create", slog.String("error", err.Error()))
		return nil, err
	}

	query := `
		INSERT INTO tasks (owner_id, title, description, is_completed, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query,
		ownerID, in.Title, nullString(in.Description), in.Completed, nullDate(in.DueDate)))
	if err != nil {
		log.Error("failed to create task",
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	log.Debug("task created", slog.Int64("task_id", task.ID), slog.Int64("owner_id", ownerID))
	return task, nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id, ownerID int64,
	in domain.TaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, is_completed = $3, due_date = $4, updated_at = now()
		WHERE id = $5 AND owner_id = $6 AND deleted_at IS NULL
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query,
		in.Title, nullString(in.Description), in.Completed, nullDate(in.DueDate), id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found for update", slog.Int64("task_id", id), slog.Int64("owner_id", ownerID))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.Int64("task_id", id),
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "update", "failed to update task", MapError(err))
	}
	return task, nil
}

// SoftDelete implements store.TaskStore.SoftDelete.
func (s *PostgresTaskStore) SoftDelete(ctx context.Context, id, ownerID int64) error {
	query := `
		UPDATE tasks
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	return s.exec(ctx, "soft_delete", id, ownerID, query, id, ownerID)
}

// UpdateStatus implements store.TaskStore.UpdateStatus.
func (s *PostgresTaskStore) UpdateStatus(ctx context.Context, id, ownerID int64, completed bool) error {
	query := `
		UPDATE tasks
		SET is_completed = $1, updated_at = now()
		WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL`

	return s.exec(ctx, "update_status", id, ownerID, query, completed, id, ownerID)
}

func (s *PostgresTaskStore) exec(ctx context.Context, operation string, id, ownerID int64, query string, args ...any) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("task statement failed",
			slog.String("operation", operation),
			slog.Int64("task_id", id),
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", operation, "statement failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			return store.NewStoreError("task", operation, "failed to read result", err)
		}
		log.Debug("task not found",
			slog.String("operation", operation),
			slog.Int64("task_id", id),
			slog.Int64("owner_id", ownerID))
		return err
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id, ownerID int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.Int64("task_id", id),
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get", "failed to query task", MapError(err))
	}
	return task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner.
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list tasks", slog.Int64("owner_id", ownerID), slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "failed to query tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "failed to scan task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "failed to iterate tasks", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		dueDate     sql.NullTime
		deletedAt   sql.NullTime
	)
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&description,
		&task.Completed,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		task.DueDate = domain.NormalizeDueDate(&dueDate.Time)
	}
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		task.DeletedAt = &t
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDate(d *time.Time) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *d, Valid: true}
}
