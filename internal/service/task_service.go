package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/featureflags"
	"github.com/aryan0dhankhar/taskdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/taskdesk/internal/security"
)

// TaskService manages tasks and their status lifecycle
type TaskService struct {
	tasks     domain.TaskRepository
	employees domain.EmployeeRepository
	authz     *security.AuthorizationService
	clock     Clock
	flags     featureflags.Func
	logger    *slog.Logger
}

// NewTaskService creates a new task service. A nil flags lookup reads
// feature flags from the environment.
func NewTaskService(
	tasks domain.TaskRepository,
	employees domain.EmployeeRepository,
	authz *security.AuthorizationService,
	clock Clock,
	flags featureflags.Func,
	logger *slog.Logger,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if flags == nil {
		flags = featureflags.Enabled
	}
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	return &TaskService{
		tasks:     tasks,
		employees: employees,
		authz:     authz,
		clock:     orSystemClock(clock),
		flags:     flags,
		logger:    logger,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Comment     string
	AssigneeID  string
}

type UpdateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	Comment     string
	AssigneeID  string
}

type TransitionInput struct {
	Status  string
	Comment string
}

type taskFields struct {
	title       string
	description string
	priority    domain.TaskPriority
	comment     *string
}

func validateTaskFields(title, description, priority, comment string) (taskFields, error) {
	var f taskFields
	var err error
	if f.title, err = requiredText("title", title, domain.MaxTitleLength); err != nil {
		return f, err
	}
	if f.description, err = requiredText("description", description, domain.MaxDescriptionLength); err != nil {
		return f, err
	}
	if f.priority, err = domain.ParseTaskPriority(priority); err != nil {
		return f, err
	}
	f.comment, err = validateComment(comment)
	return f, err
}

// validateComment returns nil for a blank comment.
func validateComment(comment string) (*string, error) {
	c, err := optionalText("comment", comment, domain.MaxCommentLength)
	if err != nil || c == "" {
		return nil, err
	}
	return &c, nil
}

// Create assigns a new pending task to an active employee
func (s *TaskService) Create(ctx context.Context, sess *domain.Session, in CreateTaskInput) (*domain.Task, error) {
	if err := s.authz.Authorize(sess, security.PermManageTasks); err != nil {
		return nil, err
	}

	f, err := validateTaskFields(in.Title, in.Description, in.Priority, in.Comment)
	if err != nil {
		return nil, err
	}
	assignee, err := s.activeAssignee(ctx, in.AssigneeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	task := &domain.Task{
		ID:           uuid.NewString(),
		Title:        f.title,
		Description:  f.description,
		Status:       domain.StatusPending,
		Priority:     f.priority,
		CreatedAt:    now,
		DueDate:      in.DueDate,
		Comment:      f.comment,
		AssigneeID:   assignee.ID,
		AssigneeName: assignee.FullName(),
		CreatedBy:    sess.Actor(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("assignee_id", task.AssigneeID),
		slog.String("actor", sess.Actor()),
	)
	return task, nil
}

func (s *TaskService) activeAssignee(ctx context.Context, id string) (*domain.Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Invalid("assigneeId", "is required")
	}
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("assigneeId %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if !emp.IsActive {
		return nil, domain.ErrInactiveAssignee
	}
	return emp, nil
}

// Get returns one task. Employees only see their own tasks; anything else
// looks missing to them.
func (s *TaskService) Get(ctx context.Context, sess *domain.Session, id string) (*domain.Task, error) {
	return s.load(ctx, sess, id, security.ActionRead)
}

func (s *TaskService) load(ctx context.Context, sess *domain.Session, id string, action security.Action) (*domain.Task, error) {
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeTask(sess, task, action); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

// List returns tasks newest first. Employees are always scoped to their own.
func (s *TaskService) List(ctx context.Context, sess *domain.Session, filter domain.TaskFilter) ([]*domain.Task, error) {
	if err := s.authz.Authorize(sess, security.PermReadOwnTasks); err != nil {
		return nil, err
	}
	if !sess.Role.Supervisor() {
		filter.AssigneeID = sess.EmployeeID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Invalid("status", "unknown status %q", filter.Status)
	}
	return s.tasks.List(ctx, filter)
}

// Update replaces every editable field of a task. Last write wins.
func (s *TaskService) Update(ctx context.Context, sess *domain.Session, id string, in UpdateTaskInput) (*domain.Task, error) {
	if err := s.authz.Authorize(sess, security.PermManageTasks); err != nil {
		return nil, err
	}

	f, err := validateTaskFields(in.Title, in.Description, in.Priority, in.Comment)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseTaskStatus(in.Status)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.AssigneeID) != task.AssigneeID {
		assignee, err := s.activeAssignee(ctx, in.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = assignee.ID
		task.AssigneeName = assignee.FullName()
	}

	now := s.clock.Now()
	previous := task.Status
	if status != previous {
		task.Status = status
		task.StatusChangedAt = &now
	}
	task.Title = f.title
	task.Description = f.description
	task.Priority = f.priority
	task.DueDate = in.DueDate
	task.Comment = f.comment
	task.Touch(sess.Actor(), now)

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	if status != previous {
		metrics.ObserveTaskTransition(string(previous), string(status))
	}

	s.logger.Info("task updated", slog.String("task_id", task.ID), slog.String("actor", sess.Actor()))
	return task, nil
}

// Delete removes a task permanently
func (s *TaskService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	if err := s.authz.Authorize(sess, security.PermManageTasks); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", slog.String("task_id", id), slog.String("actor", sess.Actor()))
	return nil
}

// TransitionStatus moves a task to a new status. Assignees may transition
// their own tasks; supervisors may transition any task.
func (s *TaskService) TransitionStatus(ctx context.Context, sess *domain.Session, id string, in TransitionInput) (*domain.Task, error) {
	status, err := domain.ParseTaskStatus(in.Status)
	if err != nil {
		return nil, err
	}
	comment, err := validateComment(in.Comment)
	if err != nil {
		return nil, err
	}

	task, err := s.load(ctx, sess, id, security.ActionTransition)
	if err != nil {
		return nil, err
	}

	previous := task.Status
	if s.flags(featureflags.StrictTaskTransitions) {
		if err := CheckTransition(previous, status, sess.Role.Supervisor()); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	task.Status = status
	task.StatusChangedAt = &now
	if comment != nil {
		task.Comment = comment
	}
	task.Touch(sess.Actor(), now)

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	metrics.ObserveTaskTransition(string(previous), string(status))

	s.logger.Info("task status changed",
		slog.String("task_id", task.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(status)),
		slog.String("actor", sess.Actor()),
	)
	return task, nil
}

// CheckTransition enforces the task state machine. Re-submitting the current
// status is always allowed so a comment can be updated on its own.
func CheckTransition(from, to domain.TaskStatus, supervisor bool) error {
	if from == to {
		return nil
	}
	switch from {
	case domain.StatusPending:
		if to == domain.StatusInProgress || to == domain.StatusCompleted {
			return nil
		}
	case domain.StatusInProgress:
		if to == domain.StatusPending || to == domain.StatusCompleted {
			return nil
		}
	case domain.StatusCompleted:
		if to == domain.StatusInProgress && supervisor {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, to)
}
