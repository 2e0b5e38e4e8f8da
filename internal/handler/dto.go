package handler

import (
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

type TaskResponse struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          domain.TaskStatus   `json:"status"`
	Priority        domain.TaskPriority `json:"priority"`
	CreatedAt       time.Time           `json:"createdAt"`
	DueDate         *time.Time          `json:"dueDate,omitempty"`
	StatusChangedAt *time.Time          `json:"statusChangedAt,omitempty"`
	Comment         *string             `json:"comment,omitempty"`
	AssigneeID      string              `json:"assigneeId,omitempty"`
	AssigneeName    string              `json:"assigneeName,omitempty"`
	IsOverdue       bool                `json:"isOverdue"`
	CreatedBy       string              `json:"createdBy"`
	ModifiedBy      *string             `json:"modifiedBy,omitempty"`
	ModifiedAt      *time.Time          `json:"modifiedAt,omitempty"`
}

func toTaskResponse(t *domain.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		CreatedAt:       t.CreatedAt,
		DueDate:         t.DueDate,
		StatusChangedAt: t.StatusChangedAt,
		Comment:         t.Comment,
		AssigneeID:      t.AssigneeID,
		AssigneeName:    t.AssigneeName,
		IsOverdue:       t.IsOverdue(now),
		CreatedBy:       t.CreatedBy,
		ModifiedBy:      t.ModifiedBy,
		ModifiedAt:      t.ModifiedAt,
	}
}

func toTaskResponses(tasks []*domain.Task) []TaskResponse {
	now := time.Now()
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t, now))
	}
	return out
}

type EmployeeResponse struct {
	ID                 string      `json:"id"`
	FirstName          string      `json:"firstName"`
	LastName           string      `json:"lastName"`
	FullName           string      `json:"fullName"`
	Email              string      `json:"email"`
	Department         string      `json:"department"`
	Position           string      `json:"position,omitempty"`
	HireDate           Date        `json:"hireDate"`
	IsActive           bool        `json:"isActive"`
	MustChangePassword bool        `json:"mustChangePassword"`
	Role               domain.Role `json:"role,omitempty"`
	CreatedBy          string      `json:"createdBy"`
	CreatedAt          time.Time   `json:"createdAt"`
	ModifiedBy         *string     `json:"modifiedBy,omitempty"`
	ModifiedAt         *time.Time  `json:"modifiedAt,omitempty"`
}

func toEmployeeResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                 e.ID,
		FirstName:          e.FirstName,
		LastName:           e.LastName,
		FullName:           e.FullName(),
		Email:              e.Email,
		Department:         e.Department,
		Position:           e.Position,
		HireDate:           Date{e.HireDate},
		IsActive:           e.IsActive,
		MustChangePassword: e.MustChangePassword,
		Role:               e.Role,
		CreatedBy:          e.CreatedBy,
		CreatedAt:          e.CreatedAt,
		ModifiedBy:         e.ModifiedBy,
		ModifiedAt:         e.ModifiedAt,
	}
}

func toEmployeeResponses(emps []*domain.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(emps))
	for _, e := range emps {
		out = append(out, toEmployeeResponse(e))
	}
	return out
}

type ManagerDashboardResponse struct {
	TotalEmployees int `json:"totalEmployees"`
	service.TaskStats
	RecentEmployees []EmployeeResponse `json:"recentEmployees"`
}

func toManagerDashboard(s *service.ManagerSummary) ManagerDashboardResponse {
	return ManagerDashboardResponse{
		TotalEmployees:  s.TotalEmployees,
		TaskStats:       s.Tasks,
		RecentEmployees: toEmployeeResponses(s.RecentEmployees),
	}
}

type EmployeeDashboardResponse struct {
	Employee EmployeeResponse `json:"employee"`
	service.TaskStats
	RecentTasks []TaskResponse `json:"recentTasks"`
}

func toEmployeeDashboard(s *service.EmployeeSummary) EmployeeDashboardResponse {
	return EmployeeDashboardResponse{
		Employee:    toEmployeeResponse(s.Employee),
		TaskStats:   s.Tasks,
		RecentTasks: toTaskResponses(s.RecentTasks),
	}
}
