package domain

import (
	"errors"
	"strconv"
	"time"
)

// Audit messages recorded for each kind of task mutation.
const (
	AuditTaskCreated = "Task created"
	AuditTaskUpdated = "Task updated"
	AuditTaskDeleted = "Task deleted"
)

// ErrEmptyAuditMessage is returned when an audit entry has no message.
var ErrEmptyAuditMessage = errors.New("audit message cannot be empty")

// AuditStatusMessage is the audit message for a completion flag change.
func AuditStatusMessage(completed bool) string {
	return "Task status updated to " + strconv.FormatBool(completed)
}

// AuditEntry is an append-only record of one mutation of a task.
// It lives independently of the task row and survives soft deletion.
type AuditEntry struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"todo_id"`
	OwnerID   int64     `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAuditEntry builds an unsaved entry stamped with the current time.
func NewAuditEntry(taskID, ownerID int64, message string) (*AuditEntry, error) {
	e := &AuditEntry{
		TaskID:    taskID,
		OwnerID:   ownerID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the entry references a task and an owner and has a message.
func (e *AuditEntry) Validate() error {
	if e.TaskID <= 0 || e.OwnerID <= 0 {
		return ErrInvalidID
	}
	if e.Message == "" {
		return ErrEmptyAuditMessage
	}
	return nil
}
