package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/taskdesk/internal/security"
	"github.com/aryan0dhankhar/taskdesk/internal/security/auth"
)

const (
	maxNameLength  = 100
	maxEmailLength = 100

	suspendedDateLayout = "02.01.2006"
)

// EmployeeDeps wires an EmployeeService.
type EmployeeDeps struct {
	Employees          domain.EmployeeRepository
	Credentials        domain.CredentialRepository
	Tasks              domain.TaskRepository
	Tx                 Transactor
	Authz              *security.AuthorizationService
	Mailer             Mailer
	Lockout            LockoutResetter
	Clock              Clock
	TempPasswordLength int
	Logger             *slog.Logger
}

// EmployeeService is the employee directory and coordinates account
// lifecycle across credentials, employees and their tasks.
type EmployeeService struct {
	employees   domain.EmployeeRepository
	credentials domain.CredentialRepository
	tasks       domain.TaskRepository
	tx          Transactor
	authz       *security.AuthorizationService
	mailer      Mailer
	lockout     LockoutResetter
	clock       Clock
	tempLength  int
	logger      *slog.Logger
}

func NewEmployeeService(d EmployeeDeps) *EmployeeService {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authz := d.Authz
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	length := d.TempPasswordLength
	if length < 8 {
		length = 10
	}
	return &EmployeeService{
		employees:   d.Employees,
		credentials: d.Credentials,
		tasks:       d.Tasks,
		tx:          orNoTx(d.Tx),
		authz:       authz,
		mailer:      d.Mailer,
		lockout:     d.Lockout,
		clock:       orSystemClock(d.Clock),
		tempLength:  length,
		logger:      logger,
	}
}

type CreateEmployeeInput struct {
	FirstName  string
	LastName   string
	Email      string
	Department string
	Position   string
	HireDate   time.Time
	Role       string
}

type CreateEmployeeResult struct {
	Employee          *domain.Employee
	TemporaryPassword string
}

type BulkEmployeeRow struct {
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Email      string `yaml:"email"`
	Department string `yaml:"department"`
	Position   string `yaml:"position"`
}

type BulkResult struct {
	Email             string
	Success           bool
	Message           string
	EmployeeID        string
	TemporaryPassword string
}

type UpdateEmployeeInput struct {
	FirstName  string
	LastName   string
	Email      string
	Department string
	Position   string
	HireDate   time.Time
	Role       string
	IsActive   *bool
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Email     string
}

type ProfileResult struct {
	Employee     *domain.Employee
	EmailChanged bool
}

// LifecycleResult reports an employee after a lifecycle change and how many
// of their open tasks were suspended.
type LifecycleResult struct {
	Employee       *domain.Employee
	SuspendedTasks int
}

type ResetPasswordResult struct {
	Employee          *domain.Employee
	TemporaryPassword string
}

type EmployeeDetail struct {
	Employee *domain.Employee
	Stats    TaskStats
	Tasks    []*domain.Task
}

// SeedAccount is a bootstrap account created at startup when missing.
type SeedAccount struct {
	Email      string
	Password   string
	Role       domain.Role
	FirstName  string
	LastName   string
	Department string
	Position   string
}

type identity struct {
	firstName string
	lastName  string
	email     string
}

func validateIdentity(first, last, email string) (identity, error) {
	var id identity
	var err error
	if id.firstName, err = requiredText("firstName", first, maxNameLength); err != nil {
		return id, err
	}
	if id.lastName, err = requiredText("lastName", last, maxNameLength); err != nil {
		return id, err
	}
	id.email, err = normalizeEmail(email)
	return id, err
}

// normalizeEmail accepts a bare address only and lower-cases it.
func normalizeEmail(email string) (string, error) {
	email, err := requiredText("email", email, maxEmailLength)
	if err != nil {
		return "", err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalid("email", "is not a valid email address")
	}
	return strings.ToLower(email), nil
}

func parseRoleOrDefault(role string) (domain.Role, error) {
	if strings.TrimSpace(role) == "" {
		return domain.RoleEmployee, nil
	}
	return domain.ParseRole(role)
}

// emailAvailable checks both the credential and employee tables. excludeID
// skips the employee being edited.
func (s *EmployeeService) emailAvailable(ctx context.Context, email, excludeID string) error {
	taken, err := s.credentials.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if !taken {
		taken, err = s.employees.EmailExists(ctx, email, excludeID)
		if err != nil {
			return err
		}
	}
	if taken {
		return domain.ErrEmailTaken
	}
	return nil
}

// List returns employees ordered by hire date, newest first
func (s *EmployeeService) List(ctx context.Context, sess *domain.Session, filter domain.EmployeeFilter) ([]*domain.Employee, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return nil, err
	}
	return s.employees.List(ctx, filter)
}

// Get returns an employee with their task statistics and tasks
func (s *EmployeeService) Get(ctx context.Context, sess *domain.Session, id string) (*EmployeeDetail, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return nil, err
	}

	detail := &EmployeeDetail{}
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}
		counts, err := s.tasks.Count(ctx, domain.CountFilter{AssigneeID: id, Now: s.clock.Now()})
		if err != nil {
			return err
		}
		tasks, err := s.tasks.List(ctx, domain.TaskFilter{AssigneeID: id})
		if err != nil {
			return err
		}
		detail.Employee, detail.Stats, detail.Tasks = emp, statsFrom(counts), tasks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Create provisions a credential with a temporary password and the employee
// record in one transaction, then sends a welcome email.
func (s *EmployeeService) Create(ctx context.Context, sess *domain.Session, in CreateEmployeeInput) (*CreateEmployeeResult, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return nil, err
	}
	res, err := s.create(ctx, sess.Actor(), in)
	metrics.ObserveLifecycle("create", metrics.Result(err))
	return res, err
}

func (s *EmployeeService) create(ctx context.Context, actor string, in CreateEmployeeInput) (*CreateEmployeeResult, error) {
	id, err := validateIdentity(in.FirstName, in.LastName, in.Email)
	if err != nil {
		return nil, err
	}
	department, err := requiredText("department", in.Department, maxNameLength)
	if err != nil {
		return nil, err
	}
	position, err := optionalText("position", in.Position, maxNameLength)
	if err != nil {
		return nil, err
	}
	role, err := parseRoleOrDefault(in.Role)
	if err != nil {
		return nil, err
	}

	if err := s.emailAvailable(ctx, id.email, ""); err != nil {
		return nil, err
	}

	temp, err := auth.GenerateTemporaryPassword(s.tempLength)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(temp)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	hireDate := in.HireDate
	if hireDate.IsZero() {
		hireDate = now
	}
	cred := &domain.Credential{
		ID:           uuid.NewString(),
		Email:        id.email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
	}
	emp := &domain.Employee{
		ID:                 uuid.NewString(),
		CredentialID:       cred.ID,
		FirstName:          id.firstName,
		LastName:           id.lastName,
		Email:              id.email,
		Department:         department,
		Position:           position,
		HireDate:           dateOnly(hireDate),
		IsActive:           true,
		MustChangePassword: true,
		Role:               role,
		CreatedBy:          actor,
		CreatedAt:          now,
	}

	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		if err := s.credentials.Create(ctx, cred); err != nil {
			return err
		}
		return s.employees.Create(ctx, emp)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("employee created",
		slog.String("employee_id", emp.ID),
		slog.String("role", string(role)),
		slog.String("actor", actor),
	)
	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, emp.Email, emp.FullName(), temp); err != nil {
			s.logger.Warn("welcome email failed", slog.String("employee_id", emp.ID), slog.String("error", err.Error()))
		}
	}
	return &CreateEmployeeResult{Employee: emp, TemporaryPassword: temp}, nil
}

// BulkCreate creates each row as an employee hired today. Rows succeed or
// fail independently.
func (s *EmployeeService) BulkCreate(ctx context.Context, sess *domain.Session, rows []BulkEmployeeRow) ([]BulkResult, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.Invalid("employees", "at least one row is required")
	}

	today := s.clock.Now()
	results := make([]BulkResult, 0, len(rows))
	for _, row := range rows {
		res, err := s.create(ctx, sess.Actor(), CreateEmployeeInput{
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			Email:      row.Email,
			Department: row.Department,
			Position:   row.Position,
			HireDate:   today,
			Role:       string(domain.RoleEmployee),
		})
		metrics.ObserveLifecycle("bulk_create", metrics.Result(err))

		r := BulkResult{Email: strings.TrimSpace(row.Email)}
		if err != nil {
			r.Message = PublicMessage(err)
		} else {
			r.Success = true
			r.Message = "created"
			r.EmployeeID = res.Employee.ID
			r.TemporaryPassword = res.TemporaryPassword
		}
		results = append(results, r)
	}

	s.logger.Info("bulk employee import", slog.Int("rows", len(rows)), slog.String("actor", sess.Actor()))
	return results, nil
}

// Update edits an employee. Clearing the active flag runs the deactivation
// cascade in the same transaction.
func (s *EmployeeService) Update(ctx context.Context, sess *domain.Session, id string, in UpdateEmployeeInput) (*LifecycleResult, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return nil, err
	}

	ident, err := validateIdentity(in.FirstName, in.LastName, in.Email)
	if err != nil {
		return nil, err
	}
	department, err := requiredText("department", in.Department, maxNameLength)
	if err != nil {
		return nil, err
	}
	position, err := optionalText("position", in.Position, maxNameLength)
	if err != nil {
		return nil, err
	}
	role, err := parseRoleOrDefault(in.Role)
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil && !*in.IsActive && id == sess.EmployeeID {
		return nil, domain.Invalid("isActive", "you cannot deactivate your own account")
	}

	res := &LifecycleResult{}
	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !strings.EqualFold(emp.Email, ident.email) {
			if err := s.emailAvailable(ctx, ident.email, emp.ID); err != nil {
				return err
			}
			if emp.CredentialID != "" {
				if err := s.credentials.UpdateEmail(ctx, emp.CredentialID, ident.email); err != nil {
					return err
				}
			}
		}
		if role != emp.Role && emp.CredentialID != "" {
			if err := s.credentials.UpdateRole(ctx, emp.CredentialID, role); err != nil {
				return err
			}
		}

		deactivating := in.IsActive != nil && emp.IsActive && !*in.IsActive
		if in.IsActive != nil {
			emp.IsActive = *in.IsActive
		}
		emp.FirstName, emp.LastName, emp.Email = ident.firstName, ident.lastName, ident.email
		emp.Department, emp.Position, emp.Role = department, position, role
		if !in.HireDate.IsZero() {
			emp.HireDate = dateOnly(in.HireDate)
		}

		now := s.clock.Now()
		emp.Touch(sess.Actor(), now)
		if err := s.employees.Update(ctx, emp); err != nil {
			return err
		}
		res.Employee = emp

		if deactivating {
			n, err := s.tasks.SuspendOpen(ctx, emp.ID, suspendComment("deactivated", now), sess.Actor(), now)
			if err != nil {
				return err
			}
			res.SuspendedTasks = n
		}
		return nil
	})
	metrics.ObserveLifecycle("update", metrics.Result(err))
	if err != nil {
		return nil, err
	}
	metrics.AddSuspendedTasks(res.SuspendedTasks)

	s.logger.Info("employee updated",
		slog.String("employee_id", id),
		slog.Int("suspended_tasks", res.SuspendedTasks),
		slog.String("actor", sess.Actor()),
	)
	return res, nil
}

// UpdateProfile lets an employee edit their own name and email.
func (s *EmployeeService) UpdateProfile(ctx context.Context, sess *domain.Session, in UpdateProfileInput) (*ProfileResult, error) {
	if err := s.authz.Authorize(sess, security.PermEditOwnProfile); err != nil {
		return nil, err
	}
	ident, err := validateIdentity(in.FirstName, in.LastName, in.Email)
	if err != nil {
		return nil, err
	}

	res := &ProfileResult{}
	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, sess.EmployeeID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(emp.Email, ident.email) {
			if err := s.emailAvailable(ctx, ident.email, emp.ID); err != nil {
				return err
			}
			if err := s.credentials.UpdateEmail(ctx, sess.UserID, ident.email); err != nil {
				return err
			}
			res.EmailChanged = true
		}
		emp.FirstName, emp.LastName, emp.Email = ident.firstName, ident.lastName, ident.email
		emp.Touch(sess.Actor(), s.clock.Now())
		if err := s.employees.Update(ctx, emp); err != nil {
			return err
		}
		res.Employee = emp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated",
		slog.String("employee_id", sess.EmployeeID),
		slog.Bool("email_changed", res.EmailChanged),
	)
	return res, nil
}

// Deactivate marks the employee inactive and moves every open task of theirs
// back to pending, atomically.
func (s *EmployeeService) Deactivate(ctx context.Context, sess *domain.Session, id string) (*LifecycleResult, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return nil, err
	}
	if id == sess.EmployeeID {
		return nil, domain.Invalid("id", "you cannot deactivate your own account")
	}

	res := &LifecycleResult{}
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		emp.IsActive = false
		emp.Touch(sess.Actor(), now)
		if err := s.employees.Update(ctx, emp); err != nil {
			return err
		}
		n, err := s.tasks.SuspendOpen(ctx, emp.ID, suspendComment("deactivated", now), sess.Actor(), now)
		if err != nil {
			return err
		}
		res.Employee, res.SuspendedTasks = emp, n
		return nil
	})
	metrics.ObserveLifecycle("deactivate", metrics.Result(err))
	if err != nil {
		return nil, err
	}
	metrics.AddSuspendedTasks(res.SuspendedTasks)

	s.logger.Info("employee deactivated",
		slog.String("employee_id", id),
		slog.Int("suspended_tasks", res.SuspendedTasks),
		slog.String("actor", sess.Actor()),
	)
	return res, nil
}

// Delete removes the employee's credential, suspends their open tasks and
// then removes the employee. Tasks survive with no assignee. Returns the
// number of suspended tasks.
func (s *EmployeeService) Delete(ctx context.Context, sess *domain.Session, id string) (int, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return 0, err
	}
	if id == sess.EmployeeID {
		return 0, domain.Invalid("id", "you cannot delete your own account")
	}

	var suspended int
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if emp.CredentialID != "" {
			if err := s.credentials.Delete(ctx, emp.CredentialID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("remove credential: %w", err)
			}
		}
		now := s.clock.Now()
		if suspended, err = s.tasks.SuspendOpen(ctx, emp.ID, suspendComment("deleted", now), sess.Actor(), now); err != nil {
			return err
		}
		return s.employees.Delete(ctx, emp.ID)
	})
	metrics.ObserveLifecycle("delete", metrics.Result(err))
	if err != nil {
		return 0, err
	}
	metrics.AddSuspendedTasks(suspended)

	s.logger.Info("employee deleted",
		slog.String("employee_id", id),
		slog.Int("suspended_tasks", suspended),
		slog.String("actor", sess.Actor()),
	)
	return suspended, nil
}

// ResetPassword issues a new temporary password and forces a change at the
// next sign-in. Any lockout on the account is cleared.
func (s *EmployeeService) ResetPassword(ctx context.Context, sess *domain.Session, id string) (*ResetPasswordResult, error) {
	if err := s.authz.Authorize(sess, security.PermManageEmployees); err != nil {
		return nil, err
	}

	temp, err := auth.GenerateTemporaryPassword(s.tempLength)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(temp)
	if err != nil {
		return nil, err
	}

	var emp *domain.Employee
	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		var err error
		if emp, err = s.employees.GetByID(ctx, id); err != nil {
			return err
		}
		if emp.CredentialID == "" {
			return fmt.Errorf("credential for employee %s: %w", id, domain.ErrNotFound)
		}
		if err := s.credentials.UpdatePasswordHash(ctx, emp.CredentialID, hash); err != nil {
			return err
		}
		now := s.clock.Now()
		if err := s.employees.SetMustChangePassword(ctx, emp.ID, true, sess.Actor(), now); err != nil {
			return err
		}
		emp.MustChangePassword = true
		emp.Touch(sess.Actor(), now)
		return nil
	})
	metrics.ObserveLifecycle("reset_password", metrics.Result(err))
	if err != nil {
		return nil, err
	}

	if s.lockout != nil {
		if err := s.lockout.Reset(ctx, emp.Email); err != nil {
			s.logger.Warn("failed to clear lockout", slog.String("employee_id", id), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("password reset by administrator", slog.String("employee_id", id), slog.String("actor", sess.Actor()))
	return &ResetPasswordResult{Employee: emp, TemporaryPassword: temp}, nil
}

// Seed creates the bootstrap accounts that do not exist yet. It returns the
// number of accounts created.
func (s *EmployeeService) Seed(ctx context.Context, accounts ...SeedAccount) (int, error) {
	created := 0
	for _, a := range accounts {
		email, err := normalizeEmail(a.Email)
		if err != nil {
			return created, err
		}
		exists, err := s.credentials.EmailExists(ctx, email)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		if err := auth.ValidatePasswordPolicy("password", a.Password); err != nil {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}
		hash, err := auth.HashPassword(a.Password)
		if err != nil {
			return created, err
		}

		now := s.clock.Now()
		cred := &domain.Credential{ID: uuid.NewString(), Email: email, PasswordHash: hash, Role: a.Role, CreatedAt: now}
		emp := &domain.Employee{
			ID:           uuid.NewString(),
			CredentialID: cred.ID,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			Email:        email,
			Department:   a.Department,
			Position:     a.Position,
			HireDate:     dateOnly(now),
			IsActive:     true,
			Role:         a.Role,
			CreatedBy:    "system",
			CreatedAt:    now,
		}
		err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
			if err := s.credentials.Create(ctx, cred); err != nil {
				return err
			}
			return s.employees.Create(ctx, emp)
		})
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}
		created++
		s.logger.Info("seeded account", slog.String("email", email), slog.String("role", string(a.Role)))
	}
	return created, nil
}

// DefaultSeedAccounts are the development admin and manager logins.
func DefaultSeedAccounts(adminPassword, managerPassword string) []SeedAccount {
	return []SeedAccount{
		{
			Email: "admin@domain.com", Password: adminPassword, Role: domain.RoleAdmin,
			FirstName: "System", LastName: "Administrator", Department: "Operations", Position: "Administrator",
		},
		{
			Email: "manager@domain.com", Password: managerPassword, Role: domain.RoleManager,
			FirstName: "Default", LastName: "Manager", Department: "Operations", Position: "Manager",
		},
	}
}

func suspendComment(reason string, at time.Time) string {
	return fmt.Sprintf("Task suspended: assignee %s on %s", reason, at.Format(suspendedDateLayout))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
