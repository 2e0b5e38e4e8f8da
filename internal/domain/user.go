package domain

import (
	"context"
	"strings"
	"time"
)

// Role is the access level attached to a credential.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Roles lists every recognised role, most privileged first.
var Roles = []Role{RoleAdmin, RoleManager, RoleEmployee}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", Invalid("role", "unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Supervisor reports whether the role manages other people's work.
func (r Role) Supervisor() bool {
	return r == RoleAdmin || r == RoleManager
}

// Credential is the login identity backing an employee record.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt, never serialized
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialRepository defines data access for credentials
type CredentialRepository interface {
	Create(ctx context.Context, c *Credential) error
	GetByID(ctx context.Context, id string) (*Credential, error)
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateEmail(ctx context.Context, id, email string) error
	UpdateRole(ctx context.Context, id string, role Role) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// Session is the authenticated principal for one request. Services receive it
// explicitly instead of reading identity from ambient state.
type Session struct {
	UserID             string
	EmployeeID         string
	Email              string
	Role               Role
	MustChangePassword bool
	TokenID            string
	ExpiresAt          time.Time
}

// Actor is the identity written to audit columns.
func (s *Session) Actor() string {
	if s == nil {
		return "system"
	}
	return s.Email
}
