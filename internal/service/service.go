package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// Transactor runs fn inside a transaction carried by ctx.
// *database.TxManager satisfies it.
type Transactor interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// Mailer delivers account emails.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name, temporaryPassword string) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

// LockoutResetter clears failed sign-in state for an email.
type LockoutResetter interface {
	Reset(ctx context.Context, email string) error
}

type noTx struct{}

func (noTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func orNoTx(tx Transactor) Transactor {
	if tx == nil {
		return noTx{}
	}
	return tx
}

func orSystemClock(c Clock) Clock {
	if c == nil {
		return SystemClock()
	}
	return c
}

// requiredText trims s and checks it is present and within max runes.
func requiredText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.Invalid(field, "is required")
	}
	return optionalText(field, s, max)
}

func optionalText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", domain.Invalid(field, "must be at most %d characters", max)
	}
	return s, nil
}

var publicSentinels = []error{
	domain.ErrEmailTaken,
	domain.ErrNotFound,
	domain.ErrForbidden,
	domain.ErrUnauthenticated,
	domain.ErrInvalidCredentials,
	domain.ErrLockedOut,
	domain.ErrAccountInactive,
	domain.ErrInactiveAssignee,
	domain.ErrInvalidTransition,
	domain.ErrPasswordChangeRequired,
	domain.ErrInvalidResetToken,
}

// PublicMessage is the text shown to a client for err. Sentinels report their
// own text rather than the wrapped chain; unexpected failures collapse to a
// generic message.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, s := range publicSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "operation failed"
}
