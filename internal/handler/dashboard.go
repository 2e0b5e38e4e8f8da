package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

// DashboardHandler serves summary figures and form lookups.
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// Manager handles GET /api/admin/dashboard
func (h *DashboardHandler) Manager(w http.ResponseWriter, r *http.Request) {
	sum, err := h.dashboard.ManagerSummary(r.Context(), session(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toManagerDashboard(sum))
}

// Employee handles GET /api/me/dashboard
func (h *DashboardHandler) Employee(w http.ResponseWriter, r *http.Request) {
	sum, err := h.dashboard.EmployeeSummary(r.Context(), session(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDashboard(sum))
}

type LookupsResponse struct {
	Departments []string              `json:"departments"`
	Roles       []domain.Role         `json:"roles"`
	Statuses    []domain.TaskStatus   `json:"statuses"`
	Priorities  []domain.TaskPriority `json:"priorities"`
}

// Lookups handles GET /api/admin/lookups
func (h *DashboardHandler) Lookups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LookupsResponse{
		Departments: domain.Departments,
		Roles:       domain.Roles,
		Statuses:    domain.TaskStatuses,
		Priorities:  domain.TaskPriorities,
	})
}
