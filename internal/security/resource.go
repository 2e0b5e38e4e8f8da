package security

import (
	"log/slog"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

// Action identifies what operation is being performed on a task
type Action string

const (
	ActionRead       Action = "read"
	ActionTransition Action = "transition"
	ActionWrite      Action = "write"
	ActionDelete     Action = "delete"
)

// AuthorizeTask checks access to one task. Supervisors may do anything; an
// employee may only read or transition tasks assigned to them.
func (as *AuthorizationService) AuthorizeTask(sess *domain.Session, task *domain.Task, action Action) error {
	if sess == nil || sess.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if sess.Role.Supervisor() {
		return nil
	}

	var perm Permission
	switch action {
	case ActionRead:
		perm = PermReadOwnTasks
	case ActionTransition:
		perm = PermTransitionOwnTasks
	default:
		return as.deny(sess, task, action)
	}
	if err := as.Authorize(sess, perm); err != nil {
		return err
	}

	if task.AssigneeID == "" || task.AssigneeID != sess.EmployeeID {
		return as.deny(sess, task, action)
	}
	return nil
}

func (as *AuthorizationService) deny(sess *domain.Session, task *domain.Task, action Action) error {
	as.logger.Warn("task access denied",
		slog.String("user_id", sess.UserID),
		slog.String("employee_id", sess.EmployeeID),
		slog.String("task_id", task.ID),
		slog.String("assignee_id", task.AssigneeID),
		slog.String("action", string(action)),
	)
	return domain.ErrForbidden
}
