package security

import (
	"errors"
	"testing"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

func session(role domain.Role, employeeID string) *domain.Session {
	return &domain.Session{UserID: "u-" + employeeID, EmployeeID: employeeID, Email: employeeID + "@x.com", Role: role}
}

func TestAuthorizeByRole(t *testing.T) {
	as := NewAuthorizationService(nil)

	cases := []struct {
		role domain.Role
		perm Permission
		want error
	}{
		{domain.RoleAdmin, PermManageEmployees, nil},
		{domain.RoleManager, PermManageTasks, nil},
		{domain.RoleManager, PermViewDashboard, nil},
		{domain.RoleEmployee, PermReadOwnTasks, nil},
		{domain.RoleEmployee, PermEditOwnProfile, nil},
		{domain.RoleEmployee, PermManageTasks, domain.ErrForbidden},
		{domain.RoleEmployee, PermViewDashboard, domain.ErrForbidden},
		{domain.Role("auditor"), PermReadOwnTasks, domain.ErrForbidden},
	}
	for _, tc := range cases {
		err := as.Authorize(session(tc.role, "e1"), tc.perm)
		if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
			t.Fatalf("%s/%s: expected %v, got %v", tc.role, tc.perm, tc.want, err)
		}
	}
}

func TestAuthorizeWithoutSession(t *testing.T) {
	as := NewAuthorizationService(nil)
	if err := as.Authorize(nil, PermReadOwnTasks); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthorizeTaskOwnership(t *testing.T) {
	as := NewAuthorizationService(nil)
	task := &domain.Task{ID: "t1", AssigneeID: "e1"}

	if err := as.AuthorizeTask(session(domain.RoleEmployee, "e1"), task, ActionTransition); err != nil {
		t.Fatalf("assignee should transition own task: %v", err)
	}
	if err := as.AuthorizeTask(session(domain.RoleEmployee, "e2"), task, ActionRead); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected other employee to be denied, got %v", err)
	}
	if err := as.AuthorizeTask(session(domain.RoleEmployee, "e1"), task, ActionDelete); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected assignee delete to be denied, got %v", err)
	}
	if err := as.AuthorizeTask(session(domain.RoleManager, "m1"), task, ActionDelete); err != nil {
		t.Fatalf("manager should manage any task: %v", err)
	}
}

func TestAuthorizeTaskUnassigned(t *testing.T) {
	as := NewAuthorizationService(nil)
	orphan := &domain.Task{ID: "t2"}
	if err := as.AuthorizeTask(&domain.Session{UserID: "u", Role: domain.RoleEmployee}, orphan, ActionRead); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected unassigned task to be hidden from employees, got %v", err)
	}
}
