package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/security/audit"
	"github.com/aryan0dhankhar/taskdesk/internal/security/ratelimit"
)

type stubAuthenticator struct {
	sessions map[string]*domain.Session
}

func (a stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	if s, ok := a.sessions[token]; ok {
		return s, nil
	}
	return nil, domain.ErrUnauthenticated
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if s := SessionFromContext(r.Context()); s != nil {
		w.Header().Set("X-Employee", s.EmployeeID)
	}
	w.WriteHeader(http.StatusOK)
})

func newAuthn() stubAuthenticator {
	return stubAuthenticator{sessions: map[string]*domain.Session{
		"emp":   {UserID: "c1", EmployeeID: "e1", Role: domain.RoleEmployee},
		"mgr":   {UserID: "c2", EmployeeID: "e2", Role: domain.RoleManager},
		"fresh": {UserID: "c3", EmployeeID: "e3", Role: domain.RoleAdmin, MustChangePassword: true},
	}}
}

func serve(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	h := Authenticate(newAuthn(), nil)(okHandler)

	if rec := serve(h, http.MethodGet, "/api/me/tasks", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/me/tasks", "bogus"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
	rec := serve(h, http.MethodGet, "/api/me/tasks", "emp")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Employee") != "e1" {
		t.Fatalf("expected session in context, got %d", rec.Code)
	}

	// Query tokens are only honoured for websocket routes.
	if rec := serve(h, http.MethodGet, "/api/me/tasks?token=emp", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected query token to be ignored on api routes, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/ws/admin/dashboard?token=mgr", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected query token on websocket route, got %d", rec.Code)
	}
}

func TestRequireRoleAndPasswordChange(t *testing.T) {
	h := Chain(okHandler,
		Authenticate(newAuthn(), nil),
		RequirePasswordChange("/api/auth/change-password"),
		RequireRole(audit.NewLogger(nil), domain.RoleAdmin, domain.RoleManager),
	)

	if rec := serve(h, http.MethodGet, "/api/admin/tasks", "emp"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/admin/tasks", "mgr"); rec.Code != http.StatusOK {
		t.Fatalf("expected manager to pass, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/admin/tasks", "fresh"); rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428 before password change, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/api/auth/change-password", "fresh"); rec.Code != http.StatusOK {
		t.Fatalf("expected change-password to be exempt, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(ratelimit.NewLimiter(0.001, 2), nil)(okHandler)
	for i := 0; i < 2; i++ {
		if rec := serve(h, http.MethodPost, "/api/auth/login", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := serve(h, http.MethodPost, "/api/auth/login", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rate limit") {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if ip := ClientIP(req); ip != "192.0.2.1" {
		t.Fatalf("expected remote addr host, got %q", ip)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if ip := ClientIP(req); ip != "203.0.113.5" {
		t.Fatalf("expected first forwarded hop, got %q", ip)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(okHandler)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected unknown origin to be ignored")
	}
}

func TestValidateJSONContentType(t *testing.T) {
	h := ValidateJSONContentType(nil)(okHandler)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/tasks", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestSanitizeInputs(t *testing.T) {
	h := SanitizeInputs(nil)(okHandler)
	if rec := serve(h, http.MethodGet, "/api/admin/employees?department=%3Cscript%3E", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected markup to be rejected, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/admin/employees?department=Sales", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected clean query to pass, got %d", rec.Code)
	}
}
