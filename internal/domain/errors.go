package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrEmailTaken             = errors.New("email already in use")
	ErrValidation             = errors.New("validation failed")
	ErrForbidden              = errors.New("access denied")
	ErrUnauthenticated        = errors.New("authentication required")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrLockedOut              = errors.New("account locked due to repeated failed sign-in attempts")
	ErrAccountInactive        = errors.New("account is deactivated")
	ErrInactiveAssignee       = errors.New("assignee is not an active employee")
	ErrInvalidTransition      = errors.New("task status transition not allowed")
	ErrPasswordChangeRequired = errors.New("password change required")
	ErrInvalidResetToken      = errors.New("invalid or expired password reset token")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
