package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevJWTSecret is only accepted outside production.
	DevJWTSecret = "change-me-in-production"
)

// Config holds the application configuration
type Config struct {
	Environment string          `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string          `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Redis       RedisConfig     `yaml:"redis"`
	Auth        AuthConfig      `yaml:"auth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Dashboard   DashboardConfig `yaml:"dashboard"`
	Tracing     TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Port               int           `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES" env-default:"1048576"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:3000"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"POSTGRES_USER" env-default:"taskdesk"`
	Password        string        `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"dev"`
	Name            string        `yaml:"name" env:"POSTGRES_DB" env-default:"taskdesk"`
	SSLMode         string        `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"POSTGRES_CONN_MAX_LIFETIME" env-default:"5m"`
}

type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL" env-default:"redis://localhost:6379"`
}

type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer              string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"taskdesk"`
	SessionTTL          time.Duration `yaml:"session_ttl" env:"AUTH_SESSION_TTL" env-default:"8h"`
	RememberMeTTL       time.Duration `yaml:"remember_me_ttl" env:"AUTH_REMEMBER_ME_TTL" env-default:"336h"`
	MaxFailedAttempts   int           `yaml:"max_failed_attempts" env:"AUTH_MAX_FAILED_ATTEMPTS" env-default:"5"`
	LockoutDuration     time.Duration `yaml:"lockout_duration" env:"AUTH_LOCKOUT_DURATION" env-default:"5m"`
	ResetTokenTTL       time.Duration `yaml:"reset_token_ttl" env:"AUTH_RESET_TOKEN_TTL" env-default:"24h"`
	TempPasswordLength  int           `yaml:"temp_password_length" env:"AUTH_TEMP_PASSWORD_LENGTH" env-default:"10"`
	SeedDefaultAccounts bool          `yaml:"seed_default_accounts" env:"SEED_DEFAULT_ACCOUNTS" env-default:"false"`
	SeedAdminPassword   string        `yaml:"seed_admin_password" env:"SEED_ADMIN_PASSWORD" env-default:"Admin123!"`
	SeedManagerPassword string        `yaml:"seed_manager_password" env:"SEED_MANAGER_PASSWORD" env-default:"Manager123!"`
	PasswordResetURL    string        `yaml:"password_reset_url" env:"PASSWORD_RESET_URL" env-default:"http://localhost:5173/account/reset-password"`
}

type RateLimitConfig struct {
	AuthRequestsPerSecond float64 `yaml:"auth_rps" env:"RATE_LIMIT_AUTH_RPS" env-default:"1"`
	AuthBurst             int     `yaml:"auth_burst" env:"RATE_LIMIT_AUTH_BURST" env-default:"10"`
}

type DashboardConfig struct {
	StreamInterval time.Duration `yaml:"stream_interval" env:"DASHBOARD_STREAM_INTERVAL" env-default:"10s"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"taskdesk"`
	SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLE_RATIO" env-default:"1"`
}

// Load reads configuration from the YAML file at path (overlaid by env), or
// from the environment alone when path is empty. CONFIG_PATH is used when
// path is not given.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes values and rejects unusable settings.
func (c *Config) Validate() error {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return errors.New("config: server timeouts must be positive")
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return errors.New("config: database host and name are required")
	}
	if c.Auth.MaxFailedAttempts < 1 {
		return errors.New("config: auth max_failed_attempts must be at least 1")
	}
	if c.Auth.LockoutDuration <= 0 || c.Auth.SessionTTL <= 0 || c.Auth.ResetTokenTTL <= 0 {
		return errors.New("config: auth durations must be positive")
	}
	if c.Auth.RememberMeTTL < c.Auth.SessionTTL {
		c.Auth.RememberMeTTL = c.Auth.SessionTTL
	}
	if c.Auth.TempPasswordLength < 8 {
		return fmt.Errorf("config: temp_password_length must be at least 8, got %d", c.Auth.TempPasswordLength)
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DevJWTSecret {
		if c.Environment == EnvProduction {
			return errors.New("config: JWT_SECRET must be set in production")
		}
		c.Auth.JWTSecret = DevJWTSecret
	}
	if c.RateLimit.AuthRequestsPerSecond <= 0 || c.RateLimit.AuthBurst < 1 {
		return errors.New("config: rate limit must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("config: tracing sample_ratio must be within [0,1], got %v", c.Tracing.SampleRatio)
	}
	if c.Dashboard.StreamInterval < time.Second {
		c.Dashboard.StreamInterval = time.Second
	}

	origins := c.Server.CORSAllowedOrigins[:0]
	for _, o := range c.Server.CORSAllowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.CORSAllowedOrigins = origins
	return nil
}

// DSN returns a lib/pq keyword/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL returns a postgres:// URL suitable for golang-migrate.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
