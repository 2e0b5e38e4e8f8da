package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type memCredentials struct {
	mu        sync.Mutex
	byID      map[string]*domain.Credential
	deleteErr error
	calls     []string
}

func newMemCredentials() *memCredentials {
	return &memCredentials{byID: map[string]*domain.Credential{}}
}

func (m *memCredentials) Create(_ context.Context, c *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "create")
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, c.Email) {
			return domain.ErrEmailTaken
		}
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCredentials) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCredentials) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCredentials) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memCredentials) update(id string, fn func(c *domain.Credential)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(c)
	return nil
}

func (m *memCredentials) UpdateEmail(_ context.Context, id, email string) error {
	return m.update(id, func(c *domain.Credential) { c.Email = email })
}

func (m *memCredentials) UpdateRole(_ context.Context, id string, role domain.Role) error {
	return m.update(id, func(c *domain.Credential) { c.Role = role })
}

func (m *memCredentials) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return m.update(id, func(c *domain.Credential) { c.PasswordHash = hash })
}

func (m *memCredentials) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memEmployees struct {
	mu   sync.Mutex
	byID map[string]*domain.Employee
}

func newMemEmployees() *memEmployees {
	return &memEmployees{byID: map[string]*domain.Employee{}}
}

func (m *memEmployees) put(e *domain.Employee) *domain.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.byID[e.ID] = &cp
	return e
}

func (m *memEmployees) get(id string) *domain.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byID[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}

func (m *memEmployees) Create(_ context.Context, e *domain.Employee) error {
	m.put(e)
	return nil
}

func (m *memEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	if e := m.get(id); e != nil {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memEmployees) GetByCredentialID(_ context.Context, credentialID string) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if credentialID != "" && e.CredentialID == credentialID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memEmployees) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.ID != excludeID && strings.EqualFold(e.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEmployees) List(_ context.Context, f domain.EmployeeFilter) ([]*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Employee{}
	for _, e := range m.byID {
		if f.Active != nil && e.IsActive != *f.Active {
			continue
		}
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HireDate.After(out[j].HireDate) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memEmployees) CountActive(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.byID {
		if e.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memEmployees) Update(_ context.Context, e *domain.Employee) error {
	if m.get(e.ID) == nil {
		return domain.ErrNotFound
	}
	m.put(e)
	return nil
}

func (m *memEmployees) SetMustChangePassword(_ context.Context, id string, must bool, actor string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.MustChangePassword = must
	e.Touch(actor, at)
	return nil
}

func (m *memEmployees) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memTasks struct {
	mu   sync.Mutex
	byID map[string]*domain.Task
}

func newMemTasks() *memTasks {
	return &memTasks{byID: map[string]*domain.Task{}}
}

func (m *memTasks) put(t *domain.Task) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.byID[t.ID] = &cp
	return t
}

func (m *memTasks) get(id string) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byID[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

func (m *memTasks) Create(_ context.Context, t *domain.Task) error {
	m.put(t)
	return nil
}

func (m *memTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if t := m.get(id); t != nil {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memTasks) List(_ context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range m.byID {
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

func (m *memTasks) Update(_ context.Context, t *domain.Task) error {
	if m.get(t.ID) == nil {
		return domain.ErrNotFound
	}
	m.put(t)
	return nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTasks) Count(_ context.Context, f domain.CountFilter) (domain.TaskCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c domain.TaskCounts
	for _, t := range m.byID {
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

func (m *memTasks) SuspendOpen(_ context.Context, assigneeID, comment, actor string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.byID {
		if t.AssigneeID != assigneeID || t.Status == domain.StatusCompleted {
			continue
		}
		if t.Status != domain.StatusPending {
			stamp := at
			t.StatusChangedAt = &stamp
		}
		t.Status = domain.StatusPending
		c := comment
		t.Comment = &c
		t.Touch(actor, at)
		n++
	}
	return n, nil
}

// countingTx runs fn directly and records how many transactions were opened.
type countingTx struct {
	readOnly  int
	readWrite int
}

func (tx *countingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	tx.readOnly++
	return fn(ctx)
}

func (tx *countingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	tx.readWrite++
	return fn(ctx)
}

type sentMail struct {
	kind string
	to   string
	body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendWelcome(_ context.Context, to, _, temporaryPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "welcome", to: to, body: temporaryPassword})
	return m.err
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "reset", to: to, body: link})
	return m.err
}

type fakeLockout struct{ reset []string }

func (l *fakeLockout) Reset(_ context.Context, email string) error {
	l.reset = append(l.reset, email)
	return nil
}

var errBoom = errors.New("boom")

func sessionFor(role domain.Role, employeeID string) *domain.Session {
	return &domain.Session{
		UserID:     "cred-" + employeeID,
		EmployeeID: employeeID,
		Email:      employeeID + "@example.com",
		Role:       role,
		TokenID:    "tok-" + employeeID,
		ExpiresAt:  testNow.Add(time.Hour),
	}
}

func employee(id string, active bool) *domain.Employee {
	return &domain.Employee{
		ID:           id,
		CredentialID: "cred-" + id,
		FirstName:    strings.ToUpper(id[:1]) + id[1:],
		LastName:     "Tester",
		Email:        id + "@example.com",
		Department:   "Engineering",
		HireDate:     testNow.AddDate(-1, 0, 0),
		IsActive:     active,
		Role:         domain.RoleEmployee,
	}
}

func task(id, assigneeID string, status domain.TaskStatus, created time.Time) *domain.Task {
	return &domain.Task{
		ID:          id,
		Title:       "Task " + id,
		Description: "Do " + id,
		Status:      status,
		Priority:    domain.PriorityNormal,
		CreatedAt:   created,
		AssigneeID:  assigneeID,
		CreatedBy:   "manager@example.com",
	}
}
