package domain

import (
	"context"
	"time"
)

// Employee is a directory record for a person with a login.
type Employee struct {
	ID                 string
	CredentialID       string
	FirstName          string
	LastName           string
	Email              string
	Department         string
	Position           string
	HireDate           time.Time
	IsActive           bool
	MustChangePassword bool
	Role               Role // joined from the credential
	CreatedBy          string
	CreatedAt          time.Time
	ModifiedBy         *string
	ModifiedAt         *time.Time
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Touch records who modified the record and when.
func (e *Employee) Touch(actor string, now time.Time) {
	e.ModifiedBy = &actor
	e.ModifiedAt = &now
}

// EmployeeFilter narrows directory listings. Nil/empty fields match everything.
type EmployeeFilter struct {
	Active     *bool
	Department string
	Limit      int
}

// EmployeeRepository defines data access for the employee directory
type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByCredentialID(ctx context.Context, credentialID string) (*Employee, error)
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, filter EmployeeFilter) ([]*Employee, error)
	CountActive(ctx context.Context) (int, error)
	Update(ctx context.Context, e *Employee) error
	SetMustChangePassword(ctx context.Context, id string, must bool, actor string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Departments offered when creating or editing employees.
var Departments = []string{
	"Engineering",
	"Finance",
	"Human Resources",
	"Marketing",
	"Operations",
	"Sales",
	"Support",
}
