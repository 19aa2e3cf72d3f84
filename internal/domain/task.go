package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title a task may carry, in characters.
const MaxTitleLength = 255

// DueDateLayout is the wire and storage layout of a task due date.
const DueDateLayout = "2006-01-02"

// Validation errors for Task. They all wrap ErrValidation.
var (
	ErrEmptyTaskTitle   = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskTitleTooLong = fmt.Errorf("%w: task title exceeds %d characters", ErrValidation, MaxTitleLength)
)

// Task is a single to-do item owned by one user.
//
// A task is visible only to its owner and only while DeletedAt is nil.
// Deleting a task stamps DeletedAt; rows are never removed.
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// VisibleTo reports whether ownerID may read the task.
func (t *Task) VisibleTo(ownerID int64) bool {
	return !t.IsDeleted() && t.OwnerID == ownerID
}

// TaskInput carries the writable fields of a task for create and update.
type TaskInput struct {
	Title       string
	Description *string
	Completed   bool
	DueDate     *time.Time
}

// Validate checks the input and normalizes it in place: the title is trimmed
// and the due date is truncated to a calendar date in UTC.
func (in *TaskInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrEmptyTaskTitle
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}
	in.DueDate = NormalizeDueDate(in.DueDate)
	return nil
}

// NormalizeDueDate drops the time-of-day component of d.
// A nil date stays nil.
func NormalizeDueDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	y, m, day := d.Date()
	n := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return &n
}

// ParseDueDate parses a YYYY-MM-DD string. An empty string yields nil.
func ParseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DueDateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: due date must use %s: %v", ErrValidation, DueDateLayout, err)
	}
	return &d, nil
}
