package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TypeTaskAudit identifies TaskAuditEvent.
const TypeTaskAudit = "task.audit"

// Event is anything that can travel on the bus.
type Event interface {
	// EventType selects the listeners that receive the event.
	EventType() string
	// EventID identifies one dispatch for log correlation.
	EventID() uuid.UUID
}

// TaskAuditEvent announces a committed mutation of a task.
type TaskAuditEvent struct {
	ID         uuid.UUID `json:"id"`
	TaskID     int64     `json:"todo_id"`
	OwnerID    int64     `json:"user_id"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskAuditEvent creates an audit event stamped with a fresh ID and the
// current time.
func NewTaskAuditEvent(taskID, ownerID int64, message string) *TaskAuditEvent {
	return &TaskAuditEvent{
		ID:         uuid.New(),
		TaskID:     taskID,
		OwnerID:    ownerID,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}

// EventType implements Event.
func (e *TaskAuditEvent) EventType() string { return TypeTaskAudit }

// EventID implements Event.
func (e *TaskAuditEvent) EventID() uuid.UUID { return e.ID }

// Listener handles one kind of event.
type Listener interface {
	Handle(ctx context.Context, event Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, event Event) error

// Handle implements Listener.
func (f ListenerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Dispatcher publishes events. Dispatch never fails from the caller's point
// of view: listener errors are absorbed by the implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}
