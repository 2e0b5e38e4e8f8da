package security

import (
	"log/slog"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermViewDashboard      Permission = "view_dashboard"
	PermManageTasks        Permission = "manage_tasks"
	PermManageEmployees    Permission = "manage_employees"
	PermReadOwnTasks       Permission = "read_own_tasks"
	PermTransitionOwnTasks Permission = "transition_own_tasks"
	PermEditOwnProfile     Permission = "edit_own_profile"
)

var selfService = []Permission{
	PermReadOwnTasks,
	PermTransitionOwnTasks,
	PermEditOwnProfile,
}

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: append([]Permission{
		PermViewDashboard,
		PermManageTasks,
		PermManageEmployees,
	}, selfService...),
	domain.RoleManager: append([]Permission{
		PermViewDashboard,
		PermManageTasks,
		PermManageEmployees,
	}, selfService...),
	domain.RoleEmployee: selfService,
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Authorize fails with ErrUnauthenticated for a missing session and
// ErrForbidden when the session's role lacks permission.
func (as *AuthorizationService) Authorize(sess *domain.Session, permission Permission) error {
	if sess == nil || sess.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if !sess.Role.Valid() {
		as.logger.Warn("unrecognized role",
			slog.String("user_id", sess.UserID),
			slog.String("role", string(sess.Role)),
		)
		return domain.ErrForbidden
	}
	if !as.HasPermission(sess.Role, permission) {
		as.logger.Warn("permission denied",
			slog.String("user_id", sess.UserID),
			slog.String("role", string(sess.Role)),
			slog.String("permission", string(permission)),
		)
		return domain.ErrForbidden
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
