package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsMiddlewareUsesPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := HTTPMetricsMiddleware(mux)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/tasks/{id}", "418"))
	for _, id := range []string{"a", "b"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/tasks/{id}", "418"))
	if after-before != 2 {
		t.Fatalf("expected 2 requests under one route label, got %v", after-before)
	}

	unmatched := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	if testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))-unmatched != 1 {
		t.Fatalf("expected unmatched route label")
	}
}

func TestCountersAndGauge(t *testing.T) {
	before := testutil.ToFloat64(tasksSuspended)
	AddSuspendedTasks(0)
	AddSuspendedTasks(3)
	if got := testutil.ToFloat64(tasksSuspended) - before; got != 3 {
		t.Fatalf("expected 3 suspended, got %v", got)
	}

	open := testutil.ToFloat64(dashboardStreams)
	StreamOpened()
	StreamOpened()
	StreamClosed()
	if got := testutil.ToFloat64(dashboardStreams) - open; got != 1 {
		t.Fatalf("expected 1 open stream, got %v", got)
	}

	if Result(nil) != "success" || Result(errors.New("x")) != "error" {
		t.Fatalf("unexpected result labels")
	}
}
