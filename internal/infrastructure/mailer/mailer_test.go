package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/reliability/circuitbreaker"
)

func TestLogMailerNeverLogsTemporaryPassword(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if err := m.SendWelcome(context.Background(), "dana@example.com", "Dana Scully", "Tmp#Secret9"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if strings.Contains(buf.String(), "Tmp#Secret9") {
		t.Fatalf("temporary password leaked into logs: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"temporary_password_length":11`) {
		t.Fatalf("expected password length to be logged: %s", buf.String())
	}
}

type flakySender struct {
	calls int
	err   error
}

func (f *flakySender) SendWelcome(context.Context, string, string, string) error {
	f.calls++
	return f.err
}

func (f *flakySender) SendPasswordReset(context.Context, string, string) error {
	f.calls++
	return f.err
}

func TestGuardedMailerFailsFast(t *testing.T) {
	relay := &flakySender{err: errors.New("connection refused")}
	m := NewGuardedMailer(relay, circuitbreaker.NewCircuitBreaker(2, 1, time.Hour), nil)
	ctx := context.Background()

	m.SendWelcome(ctx, "a@example.com", "A", "x")
	m.SendPasswordReset(ctx, "a@example.com", "http://link")
	if err := m.SendWelcome(ctx, "b@example.com", "B", "y"); !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if relay.calls != 2 {
		t.Fatalf("expected relay to be skipped while open, got %d calls", relay.calls)
	}
}
