package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aryan0dhankhar/taskdesk/internal/handler"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *apiClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &apiClient{baseURL: srv.URL, tokenDir: t.TempDir(), http: srv.Client()}
}

func TestClientSendsStoredToken(t *testing.T) {
	var gotAuth, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]handler.TaskResponse{{ID: "t1", Title: "Report"}})
	})

	var tasks []handler.TaskResponse
	if err := c.do(http.MethodGet, "/api/me/tasks", nil, nil, &tasks, true); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected not logged in, got %v", err)
	}

	if err := c.saveToken("abc123\n"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := c.do(http.MethodGet, "/api/me/tasks", map[string][]string{"status": {"pending"}}, nil, &tasks, true); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if gotAuth != "Bearer abc123" || gotQuery != "status=pending" {
		t.Fatalf("unexpected request auth=%q query=%q", gotAuth, gotQuery)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	if err := c.clearToken(); err != nil || c.loadToken() != "" {
		t.Fatalf("expected token to be cleared, err=%v", err)
	}
	if err := c.clearToken(); err != nil {
		t.Fatalf("clearing twice should be fine: %v", err)
	}
}

func TestClientDecodesAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(handler.ErrorResponse{Error: "email address is already in use", Field: "email"})
	})

	err := c.do(http.MethodPost, "/api/admin/employees", nil, map[string]string{"email": "x@example.com"}, nil, false)
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apiError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Field != "email" || !strings.Contains(apiErr.Error(), "already in use") {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestParseRoster(t *testing.T) {
	req, err := parseRoster(strings.NewReader(`
employees:
  - first_name: Dana
    last_name: Scully
    email: dana@example.com
    department: Finance
  - first_name: Fox
    last_name: Mulder
    email: fox@example.com
    department: Operations
    position: Agent
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(req.Employees) != 2 || req.Employees[1].Position != "Agent" || req.Employees[0].FirstName != "Dana" {
		t.Fatalf("unexpected rows %+v", req.Employees)
	}

	if _, err := parseRoster(strings.NewReader("employees: []\n")); err == nil {
		t.Fatalf("expected empty roster to be rejected")
	}
	if _, err := parseRoster(strings.NewReader("employees:\n  - firstname: typo\n")); err == nil {
		t.Fatalf("expected unknown fields to be rejected")
	}
}
