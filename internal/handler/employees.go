package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

// EmployeeHandler serves the admin employee directory.
type EmployeeHandler struct {
	employees *service.EmployeeService
	logger    *slog.Logger
}

func NewEmployeeHandler(employees *service.EmployeeService, logger *slog.Logger) *EmployeeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeeHandler{employees: employees, logger: logger}
}

type EmployeeRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Position   string `json:"position"`
	HireDate   *Date  `json:"hireDate"`
	Role       string `json:"role"`
}

type UpdateEmployeeRequest struct {
	EmployeeRequest
	IsActive *bool `json:"isActive"`
}

type BulkEmployeeRequest struct {
	Employees []BulkEmployeeRow `json:"employees"`
}

type BulkEmployeeRow struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// CreateEmployeeResponse carries the one-time temporary password.
type CreateEmployeeResponse struct {
	Employee          EmployeeResponse `json:"employee"`
	TemporaryPassword string           `json:"temporaryPassword"`
}

type BulkResultResponse struct {
	Email             string `json:"email"`
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	EmployeeID        string `json:"employeeId,omitempty"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

type BulkEmployeeResponse struct {
	Created int                  `json:"created"`
	Failed  int                  `json:"failed"`
	Results []BulkResultResponse `json:"results"`
}

type EmployeeDetailResponse struct {
	Employee EmployeeResponse `json:"employee"`
	service.TaskStats
	Tasks []TaskResponse `json:"tasks"`
}

type LifecycleResponse struct {
	Employee       EmployeeResponse `json:"employee"`
	SuspendedTasks int              `json:"suspendedTasks"`
}

type DeleteEmployeeResponse struct {
	Message        string `json:"message"`
	SuspendedTasks int    `json:"suspendedTasks"`
}

// List handles GET /api/admin/employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	emps, err := h.employees.List(r.Context(), session(r), domain.EmployeeFilter{
		Active:     active,
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponses(emps))
}

func hireDate(d *Date) time.Time {
	if t := d.timePtr(); t != nil {
		return *t
	}
	return time.Time{}
}

// Create handles POST /api/admin/employees
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.employees.Create(r.Context(), session(r), service.CreateEmployeeInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		HireDate:   hireDate(req.HireDate),
		Role:       req.Role,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateEmployeeResponse{
		Employee:          toEmployeeResponse(res.Employee),
		TemporaryPassword: res.TemporaryPassword,
	})
}

// BulkCreate handles POST /api/admin/employees/bulk
func (h *EmployeeHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rows := make([]service.BulkEmployeeRow, 0, len(req.Employees))
	for _, e := range req.Employees {
		rows = append(rows, service.BulkEmployeeRow{
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Email:      e.Email,
			Department: e.Department,
			Position:   e.Position,
		})
	}
	results, err := h.employees.BulkCreate(r.Context(), session(r), rows)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := BulkEmployeeResponse{Results: make([]BulkResultResponse, 0, len(results))}
	for _, res := range results {
		if res.Success {
			resp.Created++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, BulkResultResponse{
			Email:             res.Email,
			Success:           res.Success,
			Message:           res.Message,
			EmployeeID:        res.EmployeeID,
			TemporaryPassword: res.TemporaryPassword,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/admin/employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.employees.Get(r.Context(), session(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeDetailResponse{
		Employee:  toEmployeeResponse(detail.Employee),
		TaskStats: detail.Stats,
		Tasks:     toTaskResponses(detail.Tasks),
	})
}

// Update handles PUT /api/admin/employees/{id}
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.employees.Update(r.Context(), session(r), r.PathValue("id"), service.UpdateEmployeeInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		HireDate:   hireDate(req.HireDate),
		Role:       req.Role,
		IsActive:   req.IsActive,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LifecycleResponse{
		Employee:       toEmployeeResponse(res.Employee),
		SuspendedTasks: res.SuspendedTasks,
	})
}

// Deactivate handles POST /api/admin/employees/{id}/deactivate
func (h *EmployeeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	res, err := h.employees.Deactivate(r.Context(), session(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LifecycleResponse{
		Employee:       toEmployeeResponse(res.Employee),
		SuspendedTasks: res.SuspendedTasks,
	})
}

// Delete handles DELETE /api/admin/employees/{id}
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	suspended, err := h.employees.Delete(r.Context(), session(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteEmployeeResponse{
		Message:        "employee deleted",
		SuspendedTasks: suspended,
	})
}

type ResetPasswordResponse struct {
	Employee          EmployeeResponse `json:"employee"`
	TemporaryPassword string           `json:"temporaryPassword"`
}

// ResetPassword handles POST /api/admin/employees/{id}/reset-password
func (h *EmployeeHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	res, err := h.employees.ResetPassword(r.Context(), session(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetPasswordResponse{
		Employee:          toEmployeeResponse(res.Employee),
		TemporaryPassword: res.TemporaryPassword,
	})
}
