package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/tasklist-api/internal/store"
)

// Service errors. Callers match them with errors.Is; the API layer maps them
// onto HTTP status codes.
var (
	// ErrTaskNotFound covers a task that does not exist, was deleted, or
	// belongs to another owner. Maps to 404.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskLocked means another writer currently holds the task.
	// The caller may retry. Maps to 409.
	ErrTaskLocked = errors.New("task is being updated")

	// ErrTaskStorage marks an unexpected persistence failure. Maps to 500.
	ErrTaskStorage = errors.New("task storage failure")

	// ErrMissingDependency is returned by constructors given a nil
	// collaborator.
	ErrMissingDependency = errors.New("missing dependency")
)

func missingDependency(name string) error {
	return fmt.Errorf("%w: %s cannot be nil", ErrMissingDependency, name)
}

// TaskServiceError wraps unexpected failures with the operation that hit them.
// It matches both ErrTaskStorage and the underlying cause.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "update_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap exposes both the storage sentinel and the cause.
func (e *TaskServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTaskStorage}
	}
	return []error{ErrTaskStorage, e.Err}
}

// NewTaskServiceError classifies err. Missing tasks come back as
// ErrTaskNotFound and lock contention as-is; anything else is wrapped.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTaskNotFound) || errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	if errors.Is(err, ErrTaskLocked) {
		return err
	}
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
