package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

// ProfileHandler serves the caller's own employee record.
type ProfileHandler struct {
	dashboard *service.DashboardService
	employees *service.EmployeeService
	auth      *service.AuthService
	logger    *slog.Logger
}

func NewProfileHandler(dashboard *service.DashboardService, employees *service.EmployeeService, authService *service.AuthService, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{dashboard: dashboard, employees: employees, auth: authService, logger: logger}
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type UpdateProfileResponse struct {
	Employee EmployeeResponse `json:"employee"`
	// SignedOut is set when the email changed; the client must log in again.
	SignedOut bool `json:"signedOut"`
}

// Get handles GET /api/me/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	sum, err := h.dashboard.Profile(r.Context(), session(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDashboard(sum))
}

// Update handles PUT /api/me/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sess := session(r)
	res, err := h.employees.UpdateProfile(r.Context(), sess, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if res.EmailChanged {
		// An email change always ends the current session.
		if err := h.auth.Logout(r.Context(), sess); err != nil {
			h.logger.Warn("failed to revoke session after email change",
				slog.String("employee_id", sess.EmployeeID),
				slog.String("error", err.Error()),
			)
		}
	}
	writeJSON(w, http.StatusOK, UpdateProfileResponse{
		Employee:  toEmployeeResponse(res.Employee),
		SignedOut: res.EmailChanged,
	})
}
