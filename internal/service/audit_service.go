package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/events"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// AuditService records and reads the task audit trail.
type AuditService interface {
	// Record appends one entry for a task.
	Record(ctx context.Context, taskID, ownerID int64, message string) (*domain.AuditEntry, error)

	// History returns the entries of one task, oldest first.
	History(ctx context.Context, taskID, ownerID int64) ([]*domain.AuditEntry, error)
}

type auditServiceImpl struct {
	store  store.AuditStore
	logger *slog.Logger
}

// NewAuditService creates an AuditService over auditStore.
func NewAuditService(auditStore store.AuditStore, logger *slog.Logger) (AuditService, error) {
	if auditStore == nil {
		return nil, missingDependency("audit store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &auditServiceImpl{
		store:  auditStore,
		logger: logger.With("component", "audit_service"),
	}, nil
}

// Record implements AuditService.Record.
func (s *auditServiceImpl) Record(
	ctx context.Context,
	taskID, ownerID int64,
	message string,
) (*domain.AuditEntry, error) {
	entry, err := domain.NewAuditEntry(taskID, ownerID, message)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, NewTaskServiceError("record_audit", "failed to store audit entry", err)
	}
	return entry, nil
}

// History implements AuditService.History.
func (s *auditServiceImpl) History(ctx context.Context, taskID, ownerID int64) ([]*domain.AuditEntry, error) {
	entries, err := s.store.ListByTask(ctx, taskID, ownerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list audit entries",
			slog.Int64("task_id", taskID),
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_audit", "failed to list audit entries", err)
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	return entries, nil
}

// TaskAuditListener persists every TaskAuditEvent as an audit entry.
type TaskAuditListener struct {
	audit  AuditService
	logger *slog.Logger
}

var _ events.Listener = (*TaskAuditListener)(nil)

// NewTaskAuditListener creates the listener.
func NewTaskAuditListener(audit AuditService, logger *slog.Logger) (*TaskAuditListener, error) {
	if audit == nil {
		return nil, missingDependency("audit service")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskAuditListener{
		audit:  audit,
		logger: logger.With("component", "task_audit_listener"),
	}, nil
}

// Handle implements events.Listener. Events of other types are ignored.
func (l *TaskAuditListener) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TaskAuditEvent)
	if !ok {
		return nil
	}

	entry, err := l.audit.Record(ctx, e.TaskID, e.OwnerID, e.Message)
	if err != nil {
		return fmt.Errorf("record audit for task %d: %w", e.TaskID, err)
	}

	logger.FromContextOrDefault(ctx, l.logger).Info("task log created",
		slog.Int64("id", entry.ID),
		slog.Int64("task_id", entry.TaskID),
		slog.String("event_id", e.ID.String()))
	return nil
}
