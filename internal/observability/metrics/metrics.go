package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskdesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdesk_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	taskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdesk_task_status_transitions_total",
		Help: "Task status changes by source and target status",
	}, []string{"from", "to"})

	employeeLifecycle = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdesk_employee_lifecycle_total",
		Help: "Employee lifecycle operations by operation and result",
	}, []string{"operation", "result"})

	tasksSuspended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskdesk_tasks_suspended_total",
		Help: "Open tasks moved back to pending because their assignee left",
	})

	dashboardStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskdesk_dashboard_streams",
		Help: "Open websocket dashboard streams",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveLogin counts a login attempt: success, invalid, locked, inactive or error.
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

func ObserveTaskTransition(from, to string) {
	taskTransitions.WithLabelValues(from, to).Inc()
}

// ObserveLifecycle counts an employee lifecycle operation with a result label.
func ObserveLifecycle(operation, result string) {
	employeeLifecycle.WithLabelValues(operation, result).Inc()
}

func AddSuspendedTasks(n int) {
	if n > 0 {
		tasksSuspended.Add(float64(n))
	}
}

// StreamOpened and StreamClosed track live dashboard connections.
func StreamOpened() { dashboardStreams.Inc() }
func StreamClosed() { dashboardStreams.Dec() }

// Result maps an error to a metric result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
