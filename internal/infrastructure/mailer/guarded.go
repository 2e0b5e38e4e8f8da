package mailer

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/taskdesk/internal/reliability/circuitbreaker"
)

// Sender is the delivery interface shared by every mailer.
type Sender interface {
	SendWelcome(ctx context.Context, to, name, temporaryPassword string) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

// GuardedMailer stops calling a failing relay for a while instead of making
// every account operation wait on it.
type GuardedMailer struct {
	next    Sender
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewGuardedMailer(next Sender, breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) *GuardedMailer {
	if logger == nil {
		logger = slog.Default()
	}
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("mail relay circuit changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &GuardedMailer{next: next, breaker: breaker, logger: logger}
}

func (m *GuardedMailer) SendWelcome(ctx context.Context, to, name, temporaryPassword string) error {
	return m.breaker.Execute(func() error {
		return m.next.SendWelcome(ctx, to, name, temporaryPassword)
	})
}

func (m *GuardedMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	return m.breaker.Execute(func() error {
		return m.next.SendPasswordReset(ctx, to, link)
	})
}
