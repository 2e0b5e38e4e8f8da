package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/pkg/database"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTaskCountScopedToAssignee(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE due_date IS NOT NULL AND due_date < \$1 AND status <> 'completed'\)\s+FROM tasks WHERE assignee_id = \$2`).
		WithArgs(now, "emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "in_progress", "completed", "overdue"}).
			AddRow(6, 2, 1, 3, 1))

	counts, err := repo.Count(context.Background(), domain.CountFilter{AssigneeID: "emp-1", Now: now})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	want := domain.TaskCounts{Total: 6, Pending: 2, InProgress: 1, Completed: 3, Overdue: 1}
	if counts != want {
		t.Fatalf("expected %+v, got %+v", want, counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaskCountWithoutAssigneeHasNoWhere(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)

	mock.ExpectQuery(`FROM tasks$`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "in_progress", "completed", "overdue"}).
			AddRow(0, 0, 0, 0, 0))

	counts, err := repo.Count(context.Background(), domain.CountFilter{Now: time.Now()})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if counts.CompletionRate() != 0 {
		t.Fatalf("expected zero completion rate for empty store")
	}
}

func TestSuspendOpenReturnsAffectedRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)

	mock.ExpectExec(`UPDATE tasks\s+SET status = 'pending'.*WHERE assignee_id = \$1 AND status <> 'completed'`).
		WithArgs("emp-1", "suspended", sqlmock.AnyArg(), "admin@domain.com").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.SuspendOpen(context.Background(), "emp-1", "suspended", "admin@domain.com", time.Now())
	if err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 suspended tasks, got %d", n)
	}
}

func TestSuspendOpenJoinsTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)
	tm := database.NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tasks`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("later step failed")
	err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		if _, err := repo.SuspendOpen(ctx, "emp-1", "c", "a", time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)

	mock.ExpectQuery(`WHERE t.id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTaskScansNullableColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	due := created.Add(48 * time.Hour)

	cols := []string{"id", "title", "description", "status", "priority", "created_at", "due_date",
		"status_changed_at", "comment", "assignee_id", "assignee_name", "created_by", "modified_by", "modified_at"}
	mock.ExpectQuery(`WHERE t.id = \$1`).WithArgs("t-1").WillReturnRows(sqlmock.NewRows(cols).
		AddRow("t-1", "Quarterly report", "Compile figures", "in_progress", "high", created, due,
			nil, "halfway", "emp-1", "Ada Lovelace", "manager@domain.com", nil, nil))

	task, err := repo.GetByID(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if task.Status != domain.StatusInProgress || task.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected status/priority %q/%q", task.Status, task.Priority)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("expected due date %v, got %v", due, task.DueDate)
	}
	if task.StatusChangedAt != nil || task.ModifiedBy != nil {
		t.Fatalf("expected nil optional columns")
	}
	if task.Comment == nil || *task.Comment != "halfway" || task.AssigneeName != "Ada Lovelace" {
		t.Fatalf("unexpected comment/assignee %v %q", task.Comment, task.AssigneeName)
	}
}

func TestListTasksBuildsFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)

	cols := []string{"id", "title", "description", "status", "priority", "created_at", "due_date",
		"status_changed_at", "comment", "assignee_id", "assignee_name", "created_by", "modified_by", "modified_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.assignee_id = $1 AND t.status = $2 ORDER BY t.created_at DESC LIMIT $3`)).
		WithArgs("emp-1", "pending", 10).
		WillReturnRows(sqlmock.NewRows(cols))

	tasks, err := repo.List(context.Background(), domain.TaskFilter{AssigneeID: "emp-1", Status: domain.StatusPending, Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", tasks)
	}
}

func TestDeleteTaskMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTaskRepository(db, nil)

	mock.ExpectExec(`DELETE FROM tasks`).WithArgs("t-9").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "t-9"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCredentialDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCredentialRepository(db, nil)

	mock.ExpectExec(`INSERT INTO credentials`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "credentials_email_key"})

	err := repo.Create(context.Background(), &domain.Credential{
		ID: "c-1", Email: "a@x.com", PasswordHash: "h", Role: domain.RoleEmployee, CreatedAt: time.Now(),
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestGetCredentialByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCredentialRepository(db, nil)
	now := time.Now()

	mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\)`).WithArgs("A@X.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at", "updated_at"}).
			AddRow("c-1", "a@x.com", "hash", "manager", now, now))

	c, err := repo.GetByEmail(context.Background(), "A@X.com")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if c.Role != domain.RoleManager || c.PasswordHash != "hash" {
		t.Fatalf("unexpected credential %+v", c)
	}
}

func TestListEmployeesFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEmployeeRepository(db, nil)
	hired := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	active := true

	cols := []string{"id", "credential_id", "first_name", "last_name", "email", "department", "position",
		"hire_date", "is_active", "must_change_password", "role", "created_by", "created_at", "modified_by", "modified_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE e.is_active = $1 AND e.department = $2 ORDER BY e.hire_date DESC, e.created_at DESC LIMIT $3`)).
		WithArgs(true, "Sales", 5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("e-1", "c-1", "Ada", "Lovelace", "ada@x.com", "Sales", "Rep", hired, true, false, "employee",
				"admin@domain.com", hired, "admin@domain.com", hired))

	list, err := repo.List(context.Background(), domain.EmployeeFilter{Active: &active, Department: "Sales", Limit: 5})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].FullName() != "Ada Lovelace" || list[0].Role != domain.RoleEmployee {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].ModifiedBy == nil || *list[0].ModifiedBy != "admin@domain.com" {
		t.Fatalf("expected modified_by to be scanned")
	}
}

func TestEmployeeEmailExistsExcludesSelf(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEmployeeRepository(db, nil)

	mock.ExpectQuery(`AND id <> \$2`).WithArgs("ada@x.com", "e-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.EmailExists(context.Background(), "ada@x.com", "e-1")
	if err != nil || exists {
		t.Fatalf("expected no conflict, got %v (%v)", exists, err)
	}
}

func TestUpdateEmployeeMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEmployeeRepository(db, nil)

	mock.ExpectExec(`UPDATE employees`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Employee{ID: "nope"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTranslateErrorWrapsUnknown(t *testing.T) {
	base := errors.New("connection reset")
	err := translateError("list tasks", base)
	if !errors.Is(err, base) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if translateError("x", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
