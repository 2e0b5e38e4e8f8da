package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/pkg/database"
)

const employeeColumns = `
	e.id, COALESCE(e.credential_id::text, ''), e.first_name, e.last_name, e.email,
	e.department, e.position, e.hire_date, e.is_active, e.must_change_password,
	COALESCE(c.role, ''), e.created_by, e.created_at, e.modified_by, e.modified_at`

const employeeFrom = `
	FROM employees e
	LEFT JOIN credentials c ON c.id = e.credential_id`

// PostgresEmployeeRepository implements domain.EmployeeRepository using PostgreSQL
type PostgresEmployeeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresEmployeeRepository creates a new employee repository
func NewPostgresEmployeeRepository(db *sql.DB, logger *slog.Logger) *PostgresEmployeeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEmployeeRepository{db: db, logger: logger}
}

func (r *PostgresEmployeeRepository) q(ctx context.Context) database.Queryer {
	return database.QueryerFromContext(ctx, r.db)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	e := &domain.Employee{}
	var (
		role       string
		modifiedBy sql.NullString
		modifiedAt sql.NullTime
	)
	err := row.Scan(
		&e.ID,
		&e.CredentialID,
		&e.FirstName,
		&e.LastName,
		&e.Email,
		&e.Department,
		&e.Position,
		&e.HireDate,
		&e.IsActive,
		&e.MustChangePassword,
		&role,
		&e.CreatedBy,
		&e.CreatedAt,
		&modifiedBy,
		&modifiedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Role = domain.Role(role)
	e.ModifiedBy = stringPtr(modifiedBy)
	e.ModifiedAt = timePtr(modifiedAt)
	return e, nil
}

// Create inserts a directory record
func (r *PostgresEmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO employees (
			id, credential_id, first_name, last_name, email, department, position,
			hire_date, is_active, must_change_password, created_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q(ctx).ExecContext(ctx, query,
		e.ID,
		nullString(e.CredentialID),
		e.FirstName,
		e.LastName,
		e.Email,
		e.Department,
		e.Position,
		e.HireDate,
		e.IsActive,
		e.MustChangePassword,
		e.CreatedBy,
		e.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create employee",
			slog.String("email", e.Email),
			slog.String("error", err.Error()),
		)
		return translateError("create employee", err)
	}
	return nil
}

// GetByID retrieves an employee by ID
func (r *PostgresEmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + employeeFrom + ` WHERE e.id = $1`
	e, err := scanEmployee(r.q(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError("get employee", err)
	}
	return e, nil
}

// GetByCredentialID retrieves the employee linked to a login
func (r *PostgresEmployeeRepository) GetByCredentialID(ctx context.Context, credentialID string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + employeeFrom + ` WHERE e.credential_id = $1`
	e, err := scanEmployee(r.q(ctx).QueryRowContext(ctx, query, credentialID))
	if err != nil {
		return nil, translateError("get employee by credential", err)
	}
	return e, nil
}

// EmailExists reports whether another employee (not excludeID) uses email
func (r *PostgresEmployeeRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM employees WHERE lower(email) = lower($1))`
	args := []any{email}
	if excludeID != "" {
		query = `SELECT EXISTS (SELECT 1 FROM employees WHERE lower(email) = lower($1) AND id <> $2)`
		args = append(args, excludeID)
	}

	var exists bool
	if err := r.q(ctx).QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, translateError("check employee email", err)
	}
	return exists, nil
}

// List returns employees ordered by hire date, newest first
func (r *PostgresEmployeeRepository) List(ctx context.Context, filter domain.EmployeeFilter) ([]*domain.Employee, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("e.is_active = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conds = append(conds, fmt.Sprintf("e.department = $%d", len(args)))
	}

	query := `SELECT ` + employeeColumns + employeeFrom
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY e.hire_date DESC, e.created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list employees", slog.String("error", err.Error()))
		return nil, translateError("list employees", err)
	}
	defer rows.Close()

	employees := []*domain.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// CountActive counts active employees
func (r *PostgresEmployeeRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE is_active`).Scan(&n); err != nil {
		return 0, translateError("count active employees", err)
	}
	return n, nil
}

// Update writes every editable field
func (r *PostgresEmployeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	query := `
		UPDATE employees
		SET first_name = $1, last_name = $2, email = $3, department = $4, position = $5,
		    hire_date = $6, is_active = $7, must_change_password = $8,
		    modified_by = $9, modified_at = $10
		WHERE id = $11
	`
	res, err := r.q(ctx).ExecContext(ctx, query,
		e.FirstName,
		e.LastName,
		e.Email,
		e.Department,
		e.Position,
		e.HireDate,
		e.IsActive,
		e.MustChangePassword,
		nullStringPtr(e.ModifiedBy),
		nullTimePtr(e.ModifiedAt),
		e.ID,
	)
	if err != nil {
		return translateError("update employee", err)
	}
	return requireAffected(res, "update employee")
}

// SetMustChangePassword toggles the forced password change flag
func (r *PostgresEmployeeRepository) SetMustChangePassword(ctx context.Context, id string, must bool, actor string, at time.Time) error {
	res, err := r.q(ctx).ExecContext(ctx,
		`UPDATE employees SET must_change_password = $1, modified_by = $2, modified_at = $3 WHERE id = $4`,
		must, actor, at, id,
	)
	if err != nil {
		return translateError("set must change password", err)
	}
	return requireAffected(res, "set must change password")
}

// Delete removes the directory record; tasks keep existing with no assignee
func (r *PostgresEmployeeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q(ctx).ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete employee",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return translateError("delete employee", err)
	}
	return requireAffected(res, "delete employee")
}
