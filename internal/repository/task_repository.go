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

const taskColumns = `
	t.id, t.title, t.description, t.status, t.priority, t.created_at, t.due_date,
	t.status_changed_at, t.comment, COALESCE(t.assignee_id::text, ''),
	COALESCE(e.first_name || ' ' || e.last_name, ''),
	t.created_by, t.modified_by, t.modified_at`

const taskFrom = `
	FROM tasks t
	LEFT JOIN employees e ON e.id = t.assignee_id`

// PostgresTaskRepository implements domain.TaskRepository using PostgreSQL
type PostgresTaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskRepository creates a new task repository
func NewPostgresTaskRepository(db *sql.DB, logger *slog.Logger) *PostgresTaskRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskRepository{db: db, logger: logger}
}

func (r *PostgresTaskRepository) q(ctx context.Context) database.Queryer {
	return database.QueryerFromContext(ctx, r.db)
}

func scanTask(row rowScanner) (*domain.Task, error) {
	t := &domain.Task{}
	var (
		status, priority string
		dueDate          sql.NullTime
		statusChangedAt  sql.NullTime
		comment          sql.NullString
		modifiedBy       sql.NullString
		modifiedAt       sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&t.CreatedAt,
		&dueDate,
		&statusChangedAt,
		&comment,
		&t.AssigneeID,
		&t.AssigneeName,
		&t.CreatedBy,
		&modifiedBy,
		&modifiedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.DueDate = timePtr(dueDate)
	t.StatusChangedAt = timePtr(statusChangedAt)
	t.Comment = stringPtr(comment)
	t.ModifiedBy = stringPtr(modifiedBy)
	t.ModifiedAt = timePtr(modifiedAt)
	return t, nil
}

// Create inserts a task
func (r *PostgresTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (
			id, title, description, status, priority, created_at, due_date,
			status_changed_at, comment, assignee_id, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q(ctx).ExecContext(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.CreatedAt,
		nullTimePtr(t.DueDate),
		nullTimePtr(t.StatusChangedAt),
		nullStringPtr(t.Comment),
		nullString(t.AssigneeID),
		t.CreatedBy,
	)
	if err != nil {
		r.logger.Error("failed to create task",
			slog.String("assignee_id", t.AssigneeID),
			slog.String("error", err.Error()),
		)
		return translateError("create task", err)
	}
	return nil
}

// GetByID retrieves a task with its assignee name
func (r *PostgresTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + ` WHERE t.id = $1`
	t, err := scanTask(r.q(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError("get task", err)
	}
	return t, nil
}

// List returns tasks newest first
func (r *PostgresTaskRepository) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var (
		conds []string
		args  []any
	)
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		conds = append(conds, fmt.Sprintf("t.assignee_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}

	query := `SELECT ` + taskColumns + taskFrom
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY t.created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, translateError("list tasks", err)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update replaces every mutable field
func (r *PostgresTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, due_date = $5,
		    status_changed_at = $6, comment = $7, assignee_id = $8,
		    modified_by = $9, modified_at = $10
		WHERE id = $11
	`
	res, err := r.q(ctx).ExecContext(ctx, query,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		nullTimePtr(t.DueDate),
		nullTimePtr(t.StatusChangedAt),
		nullStringPtr(t.Comment),
		nullString(t.AssigneeID),
		nullStringPtr(t.ModifiedBy),
		nullTimePtr(t.ModifiedAt),
		t.ID,
	)
	if err != nil {
		return translateError("update task", err)
	}
	return requireAffected(res, "update task")
}

// Delete removes a task permanently
func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return translateError("delete task", err)
	}
	return requireAffected(res, "delete task")
}

// Count aggregates task states in a single statement so all numbers come
// from the same snapshot.
func (r *PostgresTaskRepository) Count(ctx context.Context, filter domain.CountFilter) (domain.TaskCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE due_date IS NOT NULL AND due_date < $1 AND status <> 'completed')
		FROM tasks`
	args := []any{filter.Now}
	if filter.AssigneeID != "" {
		query += ` WHERE assignee_id = $2`
		args = append(args, filter.AssigneeID)
	}

	var c domain.TaskCounts
	err := r.q(ctx).QueryRowContext(ctx, query, args...).Scan(
		&c.Total,
		&c.Pending,
		&c.InProgress,
		&c.Completed,
		&c.Overdue,
	)
	if err != nil {
		return domain.TaskCounts{}, translateError("count tasks", err)
	}
	return c, nil
}

// SuspendOpen moves the assignee's open tasks back to pending with comment.
func (r *PostgresTaskRepository) SuspendOpen(ctx context.Context, assigneeID, comment, actor string, at time.Time) (int, error) {
	query := `
		UPDATE tasks
		SET status = 'pending',
		    status_changed_at = CASE WHEN status <> 'pending' THEN $3 ELSE status_changed_at END,
		    comment = $2,
		    modified_by = $4,
		    modified_at = $3
		WHERE assignee_id = $1 AND status <> 'completed'
	`
	res, err := r.q(ctx).ExecContext(ctx, query, assigneeID, comment, at, actor)
	if err != nil {
		r.logger.Error("failed to suspend open tasks",
			slog.String("assignee_id", assigneeID),
			slog.String("error", err.Error()),
		)
		return 0, translateError("suspend open tasks", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("suspend open tasks: rows affected: %w", err)
	}
	return int(n), nil
}
