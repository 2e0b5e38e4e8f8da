package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/handler"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	c := newAPIClient()
	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "auth":
		err = handleAuth(c, args)
	case "tasks":
		err = handleTasks(c, args)
	case "employees":
		err = handleEmployees(c, args)
	case "dashboard":
		err = showDashboard(c, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskdesk auth <login|logout|who>")
		return nil
	}

	switch args[0] {
	case "login":
		return login(c, args[1:])
	case "logout":
		return logout(c)
	case "who":
		return whoAmI(c)
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
}

func handleTasks(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskdesk tasks <list|create|status>")
		return nil
	}

	switch args[0] {
	case "list":
		return listTasks(c, args[1:])
	case "create":
		return createTask(c, args[1:])
	case "status":
		return setTaskStatus(c, args[1:])
	default:
		return fmt.Errorf("unknown tasks command: %s", args[0])
	}
}

func handleEmployees(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskdesk employees <list|deactivate|import>")
		return nil
	}

	switch args[0] {
	case "list":
		return listEmployees(c, args[1:])
	case "deactivate":
		return deactivateEmployee(c, args[1:])
	case "import":
		return importEmployees(c, args[1:])
	default:
		return fmt.Errorf("unknown employees command: %s", args[0])
	}
}

// Auth commands
func login(c *apiClient, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	remember := fs.Bool("remember", false, "keep the session for longer")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	var result service.LoginResult
	err := c.do(http.MethodPost, "/api/auth/login", nil, handler.LoginRequest{
		Email:      *email,
		Password:   *password,
		RememberMe: *remember,
	}, &result, false)
	if err != nil {
		return err
	}
	if err := c.saveToken(result.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	fmt.Printf("✓ Logged in as %s (%s), session expires %s\n", result.Name, result.Role, result.ExpiresAt.Local().Format(time.RFC822))
	if result.MustChangePassword {
		fmt.Println("! You must change your password before continuing.")
	}
	return nil
}

func logout(c *apiClient) error {
	if c.loadToken() != "" {
		if err := c.do(http.MethodPost, "/api/auth/logout", nil, nil, nil, true); err != nil {
			fmt.Fprintf(os.Stderr, "warning: server logout failed: %v\n", err)
		}
	}
	if err := c.clearToken(); err != nil {
		return err
	}
	fmt.Println("✓ Logged out")
	return nil
}

func whoAmI(c *apiClient) error {
	var me handler.EmployeeDashboardResponse
	if err := c.do(http.MethodGet, "/api/me/profile", nil, nil, &me, true); err != nil {
		return err
	}
	fmt.Printf("%s <%s>\nrole: %s\ndepartment: %s\nopen tasks: %d\n",
		me.Employee.FullName, me.Employee.Email, me.Employee.Role, me.Employee.Department, me.Active)
	return nil
}

// Task commands
func listTasks(c *apiClient, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	mine := fs.Bool("mine", false, "only tasks assigned to me")
	status := fs.String("status", "", "filter by status (pending, in_progress, completed)")
	assignee := fs.String("assignee", "", "filter by assignee id")
	fs.Parse(args)

	q := url.Values{}
	if *status != "" {
		q.Set("status", *status)
	}
	path := "/api/admin/tasks"
	if *mine {
		path = "/api/me/tasks"
	} else if *assignee != "" {
		q.Set("assigneeId", *assignee)
	}

	var tasks []handler.TaskResponse
	if err := c.do(http.MethodGet, path, q, nil, &tasks, true); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tDUE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
			if t.IsOverdue {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, t.AssigneeName, due)
	}
	return w.Flush()
}

func createTask(c *apiClient, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	assignee := fs.String("assignee", "", "assignee employee id")
	priority := fs.String("priority", "", "low, normal or high")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	fs.Parse(args)

	req := handler.CreateTaskRequest{
		Title:       *title,
		Description: *description,
		Priority:    *priority,
		AssigneeID:  *assignee,
	}
	if *due != "" {
		d, err := time.Parse("2006-01-02", *due)
		if err != nil {
			return fmt.Errorf("due must be YYYY-MM-DD")
		}
		req.DueDate = &handler.Date{Time: d}
	}

	var task handler.TaskResponse
	if err := c.do(http.MethodPost, "/api/admin/tasks", nil, req, &task, true); err != nil {
		return err
	}
	fmt.Printf("✓ Task created: %s (assigned to %s)\n", task.ID, task.AssigneeName)
	return nil
}

func setTaskStatus(c *apiClient, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	comment := fs.String("comment", "", "optional comment")
	mine := fs.Bool("mine", true, "update through the self-service endpoint")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Println("Usage: taskdesk tasks status [-comment text] <task-id> <pending|in_progress|completed>")
		return nil
	}
	id, status := fs.Arg(0), fs.Arg(1)

	path := "/api/admin/tasks/" + url.PathEscape(id) + "/status"
	if *mine {
		path = "/api/me/tasks/" + url.PathEscape(id) + "/status"
	}
	var task handler.TaskResponse
	if err := c.do(http.MethodPatch, path, nil, handler.StatusRequest{Status: status, Comment: *comment}, &task, true); err != nil {
		return err
	}
	fmt.Printf("✓ %s is now %s\n", task.Title, task.Status)
	return nil
}

// Employee commands
func listEmployees(c *apiClient, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	active := fs.String("active", "", "true or false")
	department := fs.String("department", "", "filter by department")
	fs.Parse(args)

	q := url.Values{}
	if *active != "" {
		q.Set("active", *active)
	}
	if *department != "" {
		q.Set("department", *department)
	}

	var employees []handler.EmployeeResponse
	if err := c.do(http.MethodGet, "/api/admin/employees", q, nil, &employees, true); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDEPARTMENT\tROLE\tACTIVE")
	for _, e := range employees {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", e.ID, e.FullName, e.Email, e.Department, e.Role, e.IsActive)
	}
	return w.Flush()
}

func deactivateEmployee(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskdesk employees deactivate <employee-id>")
		return nil
	}
	var res handler.LifecycleResponse
	if err := c.do(http.MethodPost, "/api/admin/employees/"+url.PathEscape(args[0])+"/deactivate", nil, nil, &res, true); err != nil {
		return err
	}
	fmt.Printf("✓ %s deactivated, %d open task(s) moved back to pending\n", res.Employee.FullName, res.SuspendedTasks)
	return nil
}

func importEmployees(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskdesk employees import <roster.yaml>")
		return nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := parseRoster(f)
	if err != nil {
		return err
	}

	var res handler.BulkEmployeeResponse
	if err := c.do(http.MethodPost, "/api/admin/employees/bulk", nil, req, &res, true); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tRESULT\tTEMPORARY PASSWORD")
	for _, r := range res.Results {
		mark := "✓"
		if !r.Success {
			mark = "✗ " + r.Message
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Email, mark, r.TemporaryPassword)
	}
	w.Flush()
	fmt.Printf("%d created, %d failed\n", res.Created, res.Failed)
	return nil
}

func showDashboard(c *apiClient, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	mine := fs.Bool("mine", false, "show my own dashboard")
	fs.Parse(args)

	if *mine {
		var d handler.EmployeeDashboardResponse
		if err := c.do(http.MethodGet, "/api/me/dashboard", nil, nil, &d, true); err != nil {
			return err
		}
		printStats(d.TaskStats)
		return nil
	}

	var d handler.ManagerDashboardResponse
	if err := c.do(http.MethodGet, "/api/admin/dashboard", nil, nil, &d, true); err != nil {
		return err
	}
	fmt.Printf("active employees: %d\n", d.TotalEmployees)
	printStats(d.TaskStats)
	return nil
}

func printStats(s service.TaskStats) {
	fmt.Printf("tasks: %d total, %d pending, %d in progress, %d completed, %d overdue (%.1f%% complete)\n",
		s.Total, s.Pending, s.InProgress, s.Completed, s.Overdue, s.CompletionRate)
}

func printUsage() {
	fmt.Print(`TaskDesk CLI

Usage:
  taskdesk <command> [options]

Commands:
  auth       Session management (login, logout, who)
  tasks      Task operations (list, create, status)
  employees  Directory operations (list, deactivate, import) - manager access required
  dashboard  Show dashboard figures (-mine for your own)
  help       Show this help message

Environment Variables:
  TASKDESK_API    API endpoint (default: http://localhost:8080)

Examples:
  taskdesk auth login -email admin@domain.com -password 'Admin123!'
  taskdesk tasks list -status pending
  taskdesk tasks status -comment "started" <task-id> in_progress
  taskdesk employees import roster.yaml
`)
}
