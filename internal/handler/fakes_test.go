package handler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

type stubAuthenticator map[string]*domain.Session

func (a stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	if s, ok := a[token]; ok {
		return s, nil
	}
	return nil, domain.ErrUnauthenticated
}

type store struct {
	mu          sync.Mutex
	employees   map[string]*domain.Employee
	tasks       map[string]*domain.Task
	credentials map[string]*domain.Credential
}

func newStore() *store {
	return &store{
		employees:   map[string]*domain.Employee{},
		tasks:       map[string]*domain.Task{},
		credentials: map[string]*domain.Credential{},
	}
}

type employeeRepo struct{ *store }
type taskRepo struct{ *store }
type credentialRepo struct{ *store }

func (s employeeRepo) Create(_ context.Context, e *domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.employees[e.ID] = &cp
	return nil
}

func (s employeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.employees[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s employeeRepo) GetByCredentialID(_ context.Context, credentialID string) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.CredentialID == credentialID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s employeeRepo) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.ID != excludeID && strings.EqualFold(e.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s employeeRepo) List(_ context.Context, f domain.EmployeeFilter) ([]*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Employee{}
	for _, e := range s.employees {
		if f.Active != nil && e.IsActive != *f.Active {
			continue
		}
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s employeeRepo) CountActive(ctx context.Context) (int, error) {
	active := true
	list, err := s.List(ctx, domain.EmployeeFilter{Active: &active})
	return len(list), err
}

func (s employeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	if _, err := s.GetByID(ctx, e.ID); err != nil {
		return err
	}
	return s.Create(ctx, e)
}

func (s employeeRepo) SetMustChangePassword(_ context.Context, id string, must bool, actor string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.MustChangePassword = must
	e.Touch(actor, at)
	return nil
}

func (s employeeRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

func (s taskRepo) Create(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s taskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s taskRepo) List(_ context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range s.tasks {
		if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s taskRepo) Update(ctx context.Context, t *domain.Task) error {
	if _, err := s.GetByID(ctx, t.ID); err != nil {
		return err
	}
	return s.Create(ctx, t)
}

func (s taskRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s taskRepo) Count(_ context.Context, f domain.CountFilter) (domain.TaskCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c domain.TaskCounts
	for _, t := range s.tasks {
		if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
			continue
		}
		c.Total++
		switch t.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusInProgress:
			c.InProgress++
		case domain.StatusCompleted:
			c.Completed++
		}
		if t.IsOverdue(f.Now) {
			c.Overdue++
		}
	}
	return c, nil
}

func (s taskRepo) SuspendOpen(_ context.Context, assigneeID, comment, actor string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.AssigneeID != assigneeID || t.Status == domain.StatusCompleted {
			continue
		}
		t.Status = domain.StatusPending
		c := comment
		t.Comment = &c
		t.Touch(actor, at)
		n++
	}
	return n, nil
}

func (s credentialRepo) Create(_ context.Context, c *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.credentials {
		if strings.EqualFold(existing.Email, c.Email) {
			return domain.ErrEmailTaken
		}
	}
	cp := *c
	s.credentials[c.ID] = &cp
	return nil
}

func (s credentialRepo) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.credentials[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s credentialRepo) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s credentialRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s credentialRepo) update(id string, fn func(*domain.Credential)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(c)
	return nil
}

func (s credentialRepo) UpdateEmail(_ context.Context, id, email string) error {
	return s.update(id, func(c *domain.Credential) { c.Email = email })
}

func (s credentialRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	return s.update(id, func(c *domain.Credential) { c.Role = role })
}

func (s credentialRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return s.update(id, func(c *domain.Credential) { c.PasswordHash = hash })
}

func (s credentialRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.credentials, id)
	return nil
}

type nopMailer struct{}

func (nopMailer) SendWelcome(context.Context, string, string, string) error { return nil }
func (nopMailer) SendPasswordReset(context.Context, string, string) error   { return nil }

func (s *store) addEmployee(id string, role domain.Role, active bool) *domain.Employee {
	e := &domain.Employee{
		ID:           id,
		CredentialID: "cred-" + id,
		FirstName:    strings.ToUpper(id[:1]) + id[1:],
		LastName:     "Tester",
		Email:        id + "@example.com",
		Department:   "Engineering",
		HireDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		IsActive:     active,
		Role:         role,
		CreatedBy:    "seed",
	}
	employeeRepo{s}.Create(context.Background(), e)
	credentialRepo{s}.Create(context.Background(), &domain.Credential{ID: e.CredentialID, Email: e.Email, Role: role})
	return e
}

func (s *store) addTask(id, assignee string, status domain.TaskStatus) *domain.Task {
	t := &domain.Task{
		ID:          id,
		Title:       "Task " + id,
		Description: "Do " + id,
		Status:      status,
		Priority:    domain.PriorityNormal,
		CreatedAt:   time.Now().Add(-time.Hour),
		AssigneeID:  assignee,
		CreatedBy:   "manager@example.com",
	}
	taskRepo{s}.Create(context.Background(), t)
	return t
}
