package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/security/audit"
	"github.com/aryan0dhankhar/taskdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/taskdesk/internal/security/ratelimit"
)

// Paths reachable while a password change is pending.
const (
	changePasswordPath = "/api/auth/change-password"
	logoutPath         = "/api/auth/logout"
)

// RouterConfig bundles the handlers and security components served by the
// router. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Auth      *AuthHandler
	Tasks     *TaskHandler
	Employees *EmployeeHandler
	Dashboard *DashboardHandler
	Profile   *ProfileHandler
	Stream    *DashboardStreamHandler
	Health    *HealthHandler
	Metrics   http.Handler

	Authenticator middleware.Authenticator
	AuthLimiter   *ratelimit.Limiter
	Audit         *audit.Logger
	Logger        *slog.Logger
}

// NewRouter registers every route with its own middleware chain. Route-level
// middleware runs inside the mux so r.Pattern and path values are set.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	auditLog := cfg.Audit
	if auditLog == nil {
		auditLog = audit.NewLogger(log)
	}

	mux := http.NewServeMux()

	public := func(pattern string, h http.HandlerFunc) {
		var mws []middleware.Middleware
		if cfg.AuthLimiter != nil {
			mws = append(mws, middleware.RateLimit(cfg.AuthLimiter, log))
		}
		mux.Handle(pattern, middleware.Chain(h, mws...))
	}
	authed := []middleware.Middleware{
		middleware.Authenticate(cfg.Authenticator, log),
		middleware.RequirePasswordChange(changePasswordPath, logoutPath),
	}
	self := func(pattern string, h http.Handler) {
		mws := append(authed[:len(authed):len(authed)], middleware.AuditMiddleware(auditLog))
		mux.Handle(pattern, middleware.Chain(h, mws...))
	}
	admin := func(pattern string, h http.Handler) {
		mws := append(authed[:len(authed):len(authed)],
			middleware.RequireRole(auditLog, domain.RoleAdmin, domain.RoleManager),
			middleware.AuditMiddleware(auditLog),
		)
		mux.Handle(pattern, middleware.Chain(h, mws...))
	}

	if h := cfg.Health; h != nil {
		mux.HandleFunc("GET /healthz", h.Health)
		mux.HandleFunc("GET /readyz", h.Ready)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	if h := cfg.Auth; h != nil {
		public("POST /api/auth/login", h.Login)
		public("GET /api/auth/forgot-password", h.ForgotPasswordForm)
		public("POST /api/auth/forgot-password", h.ForgotPassword)
		public("POST /api/auth/reset-password", h.ResetPassword)
		self("POST "+logoutPath, http.HandlerFunc(h.Logout))
		self("GET "+changePasswordPath, http.HandlerFunc(h.ChangePasswordForm))
		self("POST "+changePasswordPath, http.HandlerFunc(h.ChangePassword))
	}

	if h := cfg.Dashboard; h != nil {
		admin("GET /api/admin/dashboard", http.HandlerFunc(h.Manager))
		admin("GET /api/admin/lookups", http.HandlerFunc(h.Lookups))
		self("GET /api/me/dashboard", http.HandlerFunc(h.Employee))
	}

	if h := cfg.Tasks; h != nil {
		admin("GET /api/admin/tasks", http.HandlerFunc(h.List))
		admin("POST /api/admin/tasks", http.HandlerFunc(h.Create))
		admin("GET /api/admin/tasks/{id}", http.HandlerFunc(h.Get))
		admin("PUT /api/admin/tasks/{id}", http.HandlerFunc(h.Update))
		admin("DELETE /api/admin/tasks/{id}", http.HandlerFunc(h.Delete))
		admin("PATCH /api/admin/tasks/{id}/status", http.HandlerFunc(h.UpdateStatus))

		self("GET /api/me/tasks", http.HandlerFunc(h.ListOwn))
		self("GET /api/me/tasks/{id}", http.HandlerFunc(h.GetOwn))
		self("PATCH /api/me/tasks/{id}/status", http.HandlerFunc(h.UpdateOwnStatus))
	}

	if h := cfg.Employees; h != nil {
		admin("GET /api/admin/employees", http.HandlerFunc(h.List))
		admin("POST /api/admin/employees", http.HandlerFunc(h.Create))
		admin("POST /api/admin/employees/bulk", http.HandlerFunc(h.BulkCreate))
		admin("GET /api/admin/employees/{id}", http.HandlerFunc(h.Get))
		admin("PUT /api/admin/employees/{id}", http.HandlerFunc(h.Update))
		admin("POST /api/admin/employees/{id}/deactivate", http.HandlerFunc(h.Deactivate))
		admin("POST /api/admin/employees/{id}/reset-password", http.HandlerFunc(h.ResetPassword))
		admin("DELETE /api/admin/employees/{id}", http.HandlerFunc(h.Delete))
	}

	if h := cfg.Profile; h != nil {
		self("GET /api/me/profile", http.HandlerFunc(h.Get))
		self("PUT /api/me/profile", http.HandlerFunc(h.Update))
	}

	if cfg.Stream != nil {
		admin("GET /ws/admin/dashboard", cfg.Stream)
	}

	return mux
}
