package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
environment: Development
log_level: DEBUG
server:
  port: 9090
  cors_allowed_origins: ["https://desk.example.com", " "]
database:
  host: db.internal
  name: tasks
  user: app
  password: "p@ss word"
auth:
  jwt_secret: s3cret
  max_failed_attempts: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Environment != "development" || cfg.LogLevel != "debug" {
		t.Fatalf("expected normalized env/log level, got %q/%q", cfg.Environment, cfg.LogLevel)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 1 || cfg.Server.CORSAllowedOrigins[0] != "https://desk.example.com" {
		t.Fatalf("unexpected origins %v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Auth.MaxFailedAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Auth.MaxFailedAttempts)
	}
	if cfg.Auth.LockoutDuration != 5*time.Minute {
		t.Fatalf("expected default lockout 5m, got %s", cfg.Auth.LockoutDuration)
	}
	if cfg.Auth.TempPasswordLength != 10 {
		t.Fatalf("expected default temp password length 10, got %d", cfg.Auth.TempPasswordLength)
	}
	if !strings.Contains(cfg.Database.URL(), "p%40ss%20word@db.internal:5432/tasks") {
		t.Fatalf("expected escaped credentials in url, got %s", cfg.Database.URL())
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env override 7070, got %d", cfg.Server.Port)
	}
}

func TestDevelopmentFallsBackToDevSecret(t *testing.T) {
	path := writeConfig(t, "environment: development\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Auth.JWTSecret != DevJWTSecret {
		t.Fatalf("expected dev secret, got %q", cfg.Auth.JWTSecret)
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	path := writeConfig(t, "environment: production\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing JWT secret in production")
	}
}

func TestValidateRejectsShortTempPassword(t *testing.T) {
	path := writeConfig(t, "auth:\n  temp_password_length: 6\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for short temporary passwords")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=h port=5432 user=u password=p dbname=n sslmode=disable"
	if got := d.DSN(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
