package service

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/security"
)

const (
	recentEmployeesLimit    = 5
	recentTasksLimit        = 10
	profileRecentTasksLimit = 5
)

// TaskStats is the task breakdown shown on dashboards.
type TaskStats struct {
	Total          int     `json:"totalTasks"`
	Active         int     `json:"activeTasks"`
	Pending        int     `json:"pendingTasks"`
	InProgress     int     `json:"ongoingTasks"`
	Completed      int     `json:"completedTasks"`
	Overdue        int     `json:"overdueTasks"`
	CompletionRate float64 `json:"completionRate"`
}

func statsFrom(c domain.TaskCounts) TaskStats {
	return TaskStats{
		Total:          c.Total,
		Active:         c.Active(),
		Pending:        c.Pending,
		InProgress:     c.InProgress,
		Completed:      c.Completed,
		Overdue:        c.Overdue,
		CompletionRate: c.CompletionRate(),
	}
}

type ManagerSummary struct {
	TotalEmployees  int
	Tasks           TaskStats
	RecentEmployees []*domain.Employee
}

type EmployeeSummary struct {
	Employee    *domain.Employee
	Tasks       TaskStats
	RecentTasks []*domain.Task
}

// DashboardService computes dashboard figures on every request.
type DashboardService struct {
	employees domain.EmployeeRepository
	tasks     domain.TaskRepository
	tx        Transactor
	authz     *security.AuthorizationService
	clock     Clock
	logger    *slog.Logger
}

func NewDashboardService(
	employees domain.EmployeeRepository,
	tasks domain.TaskRepository,
	tx Transactor,
	authz *security.AuthorizationService,
	clock Clock,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	return &DashboardService{
		employees: employees,
		tasks:     tasks,
		tx:        orNoTx(tx),
		authz:     authz,
		clock:     orSystemClock(clock),
		logger:    logger,
	}
}

// ManagerSummary returns organisation-wide figures from one snapshot.
func (s *DashboardService) ManagerSummary(ctx context.Context, sess *domain.Session) (*ManagerSummary, error) {
	if err := s.authz.Authorize(sess, security.PermViewDashboard); err != nil {
		return nil, err
	}

	sum := &ManagerSummary{}
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		active, err := s.employees.CountActive(ctx)
		if err != nil {
			return err
		}
		counts, err := s.tasks.Count(ctx, domain.CountFilter{Now: s.clock.Now()})
		if err != nil {
			return err
		}
		isActive := true
		recent, err := s.employees.List(ctx, domain.EmployeeFilter{Active: &isActive, Limit: recentEmployeesLimit})
		if err != nil {
			return err
		}
		sum.TotalEmployees, sum.Tasks, sum.RecentEmployees = active, statsFrom(counts), recent
		return nil
	})
	if err != nil {
		s.logger.Error("manager dashboard failed", slog.String("error", err.Error()))
		return nil, err
	}
	return sum, nil
}

// EmployeeSummary returns the caller's own figures and most recent tasks.
func (s *DashboardService) EmployeeSummary(ctx context.Context, sess *domain.Session) (*EmployeeSummary, error) {
	return s.ownSummary(ctx, sess, recentTasksLimit)
}

// Profile returns the caller's employee record with their task figures.
func (s *DashboardService) Profile(ctx context.Context, sess *domain.Session) (*EmployeeSummary, error) {
	return s.ownSummary(ctx, sess, profileRecentTasksLimit)
}

func (s *DashboardService) ownSummary(ctx context.Context, sess *domain.Session, limit int) (*EmployeeSummary, error) {
	if err := s.authz.Authorize(sess, security.PermReadOwnTasks); err != nil {
		return nil, err
	}

	sum := &EmployeeSummary{}
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, sess.EmployeeID)
		if err != nil {
			return err
		}
		counts, err := s.tasks.Count(ctx, domain.CountFilter{AssigneeID: emp.ID, Now: s.clock.Now()})
		if err != nil {
			return err
		}
		recent, err := s.tasks.List(ctx, domain.TaskFilter{AssigneeID: emp.ID, Limit: limit})
		if err != nil {
			return err
		}
		sum.Employee, sum.Tasks, sum.RecentTasks = emp, statsFrom(counts), recent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}
