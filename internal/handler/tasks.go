package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

// TaskHandler serves task endpoints for both the admin area and the
// employee's own view.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{tasks: tasks, logger: logger}
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     *Date  `json:"dueDate"`
	Comment     string `json:"comment"`
	AssigneeID  string `json:"assigneeId"`
}

type UpdateTaskRequest struct {
	CreateTaskRequest
	Status string `json:"status"`
}

type StatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

func taskFilter(r *http.Request) (domain.TaskFilter, error) {
	var f domain.TaskFilter
	q := r.URL.Query()
	f.AssigneeID = strings.TrimSpace(q.Get("assigneeId"))
	if s := q.Get("status"); s != "" {
		st, err := domain.ParseTaskStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	return f, nil
}

// List handles GET /api/admin/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := taskFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.list(w, r, filter)
}

// ListOwn handles GET /api/me/tasks. The assignee is always the caller.
func (h *TaskHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	filter, err := taskFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	filter.AssigneeID = session(r).EmployeeID
	h.list(w, r, filter)
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request, filter domain.TaskFilter) {
	tasks, err := h.tasks.List(r.Context(), session(r), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// Create handles POST /api/admin/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	task, err := h.tasks.Create(r.Context(), session(r), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate.timePtr(),
		Comment:     req.Comment,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task, time.Now()))
}

// Get handles GET /api/admin/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), session(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task, time.Now()))
}

// GetOwn handles GET /api/me/tasks/{id}
func (h *TaskHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	task, err := h.tasks.Get(r.Context(), sess, r.PathValue("id"))
	if err == nil && task.AssigneeID != sess.EmployeeID {
		err = domain.ErrNotFound
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task, time.Now()))
}

// Update handles PUT /api/admin/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	task, err := h.tasks.Update(r.Context(), session(r), r.PathValue("id"), service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate.timePtr(),
		Comment:     req.Comment,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task, time.Now()))
}

// Delete handles DELETE /api/admin/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), session(r), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/admin/tasks/{id}/status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, false)
}

// UpdateOwnStatus handles PATCH /api/me/tasks/{id}/status
func (h *TaskHandler) UpdateOwnStatus(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, true)
}

func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, own bool) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sess := session(r)
	id := r.PathValue("id")
	if own {
		current, err := h.tasks.Get(r.Context(), sess, id)
		if err == nil && current.AssigneeID != sess.EmployeeID {
			err = domain.ErrNotFound
		}
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	task, err := h.tasks.TransitionStatus(r.Context(), sess, id, service.TransitionInput{
		Status:  req.Status,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task, time.Now()))
}
