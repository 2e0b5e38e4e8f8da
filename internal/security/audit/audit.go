package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

type requestIDKey struct{}

// WithRequestID stores the request ID used to correlate audit records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, sess *domain.Session, action, resource, resourceID, status, details string) {
	userID, role := "", ""
	if sess != nil {
		userID, role = sess.UserID, string(sess.Role)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("role", role),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogLogin(ctx context.Context, email, status, details string) {
	al.logger.Info("audit",
		slog.String("action", "login"),
		slog.String("resource", "session"),
		slog.String("email", email),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogDenied(ctx context.Context, sess *domain.Session, reason string) {
	al.LogAction(ctx, sess, "access_denied", "api", "", "denied", reason)
}
