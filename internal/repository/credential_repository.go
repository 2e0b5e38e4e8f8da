package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/pkg/database"
)

// PostgresCredentialRepository implements domain.CredentialRepository using PostgreSQL
type PostgresCredentialRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCredentialRepository creates a new credential repository
func NewPostgresCredentialRepository(db *sql.DB, logger *slog.Logger) *PostgresCredentialRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCredentialRepository{db: db, logger: logger}
}

func (r *PostgresCredentialRepository) q(ctx context.Context) database.Queryer {
	return database.QueryerFromContext(ctx, r.db)
}

// Create inserts a credential
func (r *PostgresCredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	query := `
		INSERT INTO credentials (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err := r.q(ctx).ExecContext(ctx, query, c.ID, c.Email, c.PasswordHash, string(c.Role), c.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create credential",
			slog.String("email", c.Email),
			slog.String("error", err.Error()),
		)
		return translateError("create credential", err)
	}
	c.UpdatedAt = c.CreatedAt
	return nil
}

// GetByID retrieves a credential by ID
func (r *PostgresCredentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM credentials
		WHERE id = $1
	`
	return r.scanOne(r.q(ctx).QueryRowContext(ctx, query, id), "get credential")
}

// GetByEmail retrieves a credential by email, case-insensitively
func (r *PostgresCredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM credentials
		WHERE lower(email) = lower($1)
	`
	return r.scanOne(r.q(ctx).QueryRowContext(ctx, query, email), "get credential by email")
}

func (r *PostgresCredentialRepository) scanOne(row *sql.Row, op string) (*domain.Credential, error) {
	c := &domain.Credential{}
	var role string
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &role, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translateError(op, err)
	}
	c.Role = domain.Role(role)
	return c, nil
}

// EmailExists reports whether any credential uses email
func (r *PostgresCredentialRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credentials WHERE lower(email) = lower($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, translateError("check credential email", err)
	}
	return exists, nil
}

// UpdateEmail changes the login email
func (r *PostgresCredentialRepository) UpdateEmail(ctx context.Context, id, email string) error {
	res, err := r.q(ctx).ExecContext(ctx,
		`UPDATE credentials SET email = $1, updated_at = now() WHERE id = $2`, email, id)
	if err != nil {
		return translateError("update credential email", err)
	}
	return requireAffected(res, "update credential email")
}

// UpdateRole changes the access role
func (r *PostgresCredentialRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.q(ctx).ExecContext(ctx,
		`UPDATE credentials SET role = $1, updated_at = now() WHERE id = $2`, string(role), id)
	if err != nil {
		return translateError("update credential role", err)
	}
	return requireAffected(res, "update credential role")
}

// UpdatePasswordHash replaces the stored hash, invalidating the old password
func (r *PostgresCredentialRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.q(ctx).ExecContext(ctx,
		`UPDATE credentials SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
	if err != nil {
		return translateError("update credential password", err)
	}
	return requireAffected(res, "update credential password")
}

// Delete removes the credential permanently
func (r *PostgresCredentialRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q(ctx).ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete credential",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return translateError("delete credential", err)
	}
	return requireAffected(res, "delete credential")
}
