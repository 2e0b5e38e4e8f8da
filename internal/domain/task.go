package domain

import (
	"context"
	"strings"
	"time"
)

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", Invalid("status", "unknown status %q", s)
	}
	return st, nil
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority ranks tasks for the assignee.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityNormal, PriorityHigh}

// ParseTaskPriority defaults an empty value to normal.
func ParseTaskPriority(s string) (TaskPriority, error) {
	if strings.TrimSpace(s) == "" {
		return PriorityNormal, nil
	}
	p := TaskPriority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", Invalid("priority", "unknown priority %q", s)
	}
	return p, nil
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1500
	MaxCommentLength     = 500
)

// Task is a unit of work assigned to an employee.
type Task struct {
	ID              string
	Title           string
	Description     string
	Status          TaskStatus
	Priority        TaskPriority
	CreatedAt       time.Time
	DueDate         *time.Time
	StatusChangedAt *time.Time
	Comment         *string
	AssigneeID      string // empty once the assignee has been deleted
	AssigneeName    string // read model only
	CreatedBy       string
	ModifiedBy      *string
	ModifiedAt      *time.Time
}

// IsOverdue reports whether the task is past its due date and still open.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

func (t *Task) Touch(actor string, now time.Time) {
	t.ModifiedBy = &actor
	t.ModifiedAt = &now
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssigneeID string
	Status     TaskStatus
	Limit      int
}

// CountFilter scopes an aggregate count. Now decides overdue.
type CountFilter struct {
	AssigneeID string
	Now        time.Time
}

// TaskCounts is a status rollup over a set of tasks.
type TaskCounts struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Overdue    int
}

// Active counts tasks that are not completed.
func (c TaskCounts) Active() int {
	return c.Pending + c.InProgress
}

// CompletionRate is the completed share as a percentage, 0 for no tasks.
func (c TaskCounts) CompletionRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Total) * 100
}

// TaskRepository defines data access for tasks
type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter CountFilter) (TaskCounts, error)
	// SuspendOpen moves every non-completed task of the assignee back to
	// pending with comment and returns how many rows changed.
	SuspendOpen(ctx context.Context, assigneeID, comment, actor string, at time.Time) (int, error)
}
