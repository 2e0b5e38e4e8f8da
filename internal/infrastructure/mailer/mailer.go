package mailer

import (
	"context"
	"log/slog"
)

// LogMailer stands in for an SMTP relay: messages are written to the log
// instead of being delivered.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendWelcome announces a new account. The temporary password itself is not
// logged.
func (m *LogMailer) SendWelcome(ctx context.Context, to, name, temporaryPassword string) error {
	m.logger.InfoContext(ctx, "welcome email queued",
		slog.String("to", to),
		slog.String("name", name),
		slog.Int("temporary_password_length", len(temporaryPassword)),
	)
	return nil
}

// SendPasswordReset logs the reset link at debug level so it can be picked
// up from local logs.
func (m *LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.logger.InfoContext(ctx, "password reset email queued", slog.String("to", to))
	m.logger.DebugContext(ctx, "password reset link", slog.String("to", to), slog.String("link", link))
	return nil
}
