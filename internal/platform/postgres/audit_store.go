package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// PostgresAuditStore implements store.AuditStore on the task_logs table.
type PostgresAuditStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AuditStore = (*PostgresAuditStore)(nil)

// NewPostgresAuditStore creates an audit store. If logger is nil,
// slog.Default() is used.
func NewPostgresAuditStore(db store.DBTX, logger *slog.Logger) *PostgresAuditStore {
	if db == nil {
		// ALLOW-PANIC: constructor argument check
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuditStore{
		db:     db,
		logger: logger.With(slog.String("component", "audit_store")),
	}
}

// Create implements store.AuditStore.Create. The entry's ID and CreatedAt
// are overwritten with the stored values.
func (s *PostgresAuditStore) Create(ctx context.Context, entry *domain.AuditEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO task_logs (task_id, owner_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query, entry.TaskID, entry.OwnerID, entry.Message).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("audit entry references unknown task", slog.Int64("task_id", entry.TaskID))
		} else {
			log.Error("failed to create audit entry",
				slog.Int64("task_id", entry.TaskID),
				slog.String("error", err.Error()))
		}
		return store.NewStoreError("audit_entry", "create", "failed to insert audit entry", MapError(err))
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return nil
}

// ListByTask implements store.AuditStore.ListByTask.
func (s *PostgresAuditStore) ListByTask(ctx context.Context, taskID, ownerID int64) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, task_id, owner_id, message, created_at
		FROM task_logs
		WHERE task_id = $1 AND owner_id = $2
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, taskID, ownerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list audit entries",
			slog.Int64("task_id", taskID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("audit_entry", "list", "failed to query audit entries", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.OwnerID, &e.Message, &e.CreatedAt); err != nil {
			return nil, store.NewStoreError("audit_entry", "list", "failed to scan audit entry", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("audit_entry", "list", "failed to iterate audit entries", err)
	}
	return entries, nil
}
