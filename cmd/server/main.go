package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/taskdesk/internal/featureflags"
	"github.com/aryan0dhankhar/taskdesk/internal/handler"
	"github.com/aryan0dhankhar/taskdesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/taskdesk/internal/infrastructure/mailer"
	"github.com/aryan0dhankhar/taskdesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/taskdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/taskdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/taskdesk/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/taskdesk/internal/reliability/retry"
	"github.com/aryan0dhankhar/taskdesk/internal/repository"
	"github.com/aryan0dhankhar/taskdesk/internal/security"
	"github.com/aryan0dhankhar/taskdesk/internal/security/audit"
	"github.com/aryan0dhankhar/taskdesk/internal/security/auth"
	"github.com/aryan0dhankhar/taskdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/taskdesk/internal/security/ratelimit"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
	"github.com/aryan0dhankhar/taskdesk/pkg/config"
	"github.com/aryan0dhankhar/taskdesk/pkg/database"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (env overrides)")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting TaskDesk server", slog.String("environment", cfg.Environment))

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, tracing.Settings{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// 4. Connect to Postgres and Redis; both may still be starting
	backoff := retry.DefaultConfig()
	pool, err := retry.Do(ctx, backoff, log, "connect postgres", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, &database.Config{
			DSN:               cfg.Database.DSN(),
			MaxOpenConns:      cfg.Database.MaxOpenConns,
			MaxIdleConns:      cfg.Database.MaxIdleConns,
			ConnMaxLifetime:   cfg.Database.ConnMaxLifetime,
			MetricsRegisterer: prometheus.DefaultRegisterer,
		}, log)
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	kv, err := retry.Do(ctx, backoff, log, "connect redis", func(context.Context) (*redis.Client, error) {
		return redis.NewClient(cfg.Redis.URL)
	})
	if err != nil {
		return err
	}
	defer kv.Close()

	// 5. Repositories and transactions
	db := pool.GetDB()
	credentials := repository.NewPostgresCredentialRepository(db, log)
	employees := repository.NewPostgresEmployeeRepository(db, log)
	tasks := repository.NewPostgresTaskRepository(db, log)
	tx := database.NewTxManager(db)

	// 6. Security components
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	lockout := auth.NewLockout(kv, cfg.Auth.MaxFailedAttempts, cfg.Auth.LockoutDuration)
	authz := security.NewAuthorizationService(log)
	auditLog := audit.NewLogger(log)
	authLimiter := ratelimit.NewLimiter(cfg.RateLimit.AuthRequestsPerSecond, cfg.RateLimit.AuthBurst)
	mail := mailer.NewGuardedMailer(mailer.NewLogMailer(log), circuitbreaker.NewCircuitBreaker(5, 1, time.Minute), log)
	clock := service.SystemClock()

	// 7. Services
	authService := service.NewAuthService(service.AuthDeps{
		Credentials: credentials,
		Employees:   employees,
		Tx:          tx,
		Tokens:      tokens,
		Lockout:     lockout,
		Revocations: auth.NewRevocations(kv),
		ResetTokens: auth.NewResetTokens(kv, cfg.Auth.ResetTokenTTL),
		Mailer:      mail,
		Settings: service.AuthSettings{
			SessionTTL:       cfg.Auth.SessionTTL,
			RememberMeTTL:    cfg.Auth.RememberMeTTL,
			PasswordResetURL: cfg.Auth.PasswordResetURL,
		},
		Clock:  clock,
		Logger: log,
	})
	employeeService := service.NewEmployeeService(service.EmployeeDeps{
		Employees:          employees,
		Credentials:        credentials,
		Tasks:              tasks,
		Tx:                 tx,
		Authz:              authz,
		Mailer:             mail,
		Lockout:            lockout,
		Clock:              clock,
		TempPasswordLength: cfg.Auth.TempPasswordLength,
		Logger:             log,
	})
	taskService := service.NewTaskService(tasks, employees, authz, clock, featureflags.Enabled, log)
	dashboardService := service.NewDashboardService(employees, tasks, tx, authz, clock, log)

	if cfg.Auth.SeedDefaultAccounts {
		n, err := employeeService.Seed(ctx, service.DefaultSeedAccounts(cfg.Auth.SeedAdminPassword, cfg.Auth.SeedManagerPassword)...)
		if err != nil {
			return fmt.Errorf("seed accounts: %w", err)
		}
		log.Info("bootstrap accounts checked", slog.Int("created", n))
	}

	// 8. HTTP routes; route-level security runs inside the mux
	mux := handler.NewRouter(handler.RouterConfig{
		Auth:      handler.NewAuthHandler(authService, auditLog, log),
		Tasks:     handler.NewTaskHandler(taskService, log),
		Employees: handler.NewEmployeeHandler(employeeService, log),
		Dashboard: handler.NewDashboardHandler(dashboardService, log),
		Profile:   handler.NewProfileHandler(dashboardService, employeeService, authService, log),
		Stream: handler.NewDashboardStreamHandler(dashboardService, cfg.Dashboard.StreamInterval,
			featureflags.Enabled, cfg.Server.CORSAllowedOrigins, log),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": handler.PingFunc(pool.Health),
			"redis":    kv,
		}, log),
		Metrics:       promhttp.Handler(),
		Authenticator: authService,
		AuthLimiter:   authLimiter,
		Audit:         auditLog,
		Logger:        log,
	})

	// Global chain, outermost first. Nothing between the metrics middleware
	// and the mux replaces the request, so the matched pattern is visible.
	root := otelhttp.NewHandler(
		middleware.Chain(mux,
			middleware.RequestID(log),
			metrics.HTTPMetricsMiddleware,
			middleware.CORS(cfg.Server.CORSAllowedOrigins),
			middleware.SanitizeInputs(log),
			middleware.ValidateJSONContentType(log),
			middleware.LimitBody(cfg.Server.MaxBodyBytes),
		),
		"taskdesk",
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Info("server starting",
		slog.Int("port", cfg.Server.Port),
		slog.Float64("auth_rps", cfg.RateLimit.AuthRequestsPerSecond),
		slog.Int("auth_burst", cfg.RateLimit.AuthBurst),
		slog.Bool("dashboard_stream", featureflags.Enabled(featureflags.DashboardStream)),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
