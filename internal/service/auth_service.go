package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/taskdesk/internal/security/auth"
)

// ForgotPasswordMessage is returned whether or not the account exists.
const ForgotPasswordMessage = "If an account exists for that email address, password reset instructions have been sent."

const (
	RedirectChangePassword    = "/account/change-password"
	RedirectAdminDashboard    = "/admin/dashboard"
	RedirectEmployeeDashboard = "/employee/dashboard"
)

// AuthSettings are the session and reset parameters from configuration.
type AuthSettings struct {
	SessionTTL       time.Duration
	RememberMeTTL    time.Duration
	PasswordResetURL string
}

// AuthDeps wires an AuthService.
type AuthDeps struct {
	Credentials domain.CredentialRepository
	Employees   domain.EmployeeRepository
	Tx          Transactor
	Tokens      *auth.TokenManager
	Lockout     *auth.Lockout
	Revocations *auth.Revocations
	ResetTokens *auth.ResetTokens
	Mailer      Mailer
	Settings    AuthSettings
	Clock       Clock
	Logger      *slog.Logger
}

// AuthService handles sign-in, sessions and passwords
type AuthService struct {
	credentials domain.CredentialRepository
	employees   domain.EmployeeRepository
	tx          Transactor
	tokens      *auth.TokenManager
	lockout     *auth.Lockout
	revocations *auth.Revocations
	resets      *auth.ResetTokens
	mailer      Mailer
	settings    AuthSettings
	clock       Clock
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(d AuthDeps) *AuthService {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := d.Settings
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = 8 * time.Hour
	}
	if settings.RememberMeTTL < settings.SessionTTL {
		settings.RememberMeTTL = settings.SessionTTL
	}
	return &AuthService{
		credentials: d.Credentials,
		employees:   d.Employees,
		tx:          orNoTx(d.Tx),
		tokens:      d.Tokens,
		lockout:     d.Lockout,
		revocations: d.Revocations,
		resets:      d.ResetTokens,
		mailer:      d.Mailer,
		settings:    settings,
		clock:       orSystemClock(d.Clock),
		logger:      logger,
	}
}

type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// LoginResult represents login response
type LoginResult struct {
	Token              string      `json:"token"`
	TokenType          string      `json:"tokenType"`
	ExpiresAt          time.Time   `json:"expiresAt"`
	EmployeeID         string      `json:"employeeId"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Role               domain.Role `json:"role"`
	MustChangePassword bool        `json:"mustChangePassword"`
	Redirect           string      `json:"redirect"`
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

type ResetPasswordInput struct {
	Email           string
	Token           string
	Password        string
	ConfirmPassword string
}

// Login authenticates an email and password. Failed attempts are counted per
// email; reaching the limit locks the account for the lockout window, during
// which even the correct password is refused.
func (s *AuthService) Login(ctx context.Context, in LoginInput, clientIP string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, domain.Invalid("email", "is required")
	}
	if in.Password == "" {
		return nil, domain.Invalid("password", "is required")
	}

	locked, remaining, err := s.lockout.Locked(ctx, email)
	if err != nil {
		metrics.ObserveLogin("error")
		return nil, err
	}
	if locked {
		metrics.ObserveLogin("locked")
		s.logger.Warn("login refused: account locked",
			slog.String("email", email),
			slog.String("client_ip", clientIP),
			slog.Duration("remaining", remaining),
		)
		return nil, domain.ErrLockedOut
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		metrics.ObserveLogin("error")
		return nil, err
	}
	if cred == nil || !auth.ComparePassword(cred.PasswordHash, in.Password) {
		return nil, s.failLogin(ctx, email, clientIP)
	}

	if err := s.lockout.Reset(ctx, email); err != nil {
		s.logger.Warn("failed to reset login failures", slog.String("email", email), slog.String("error", err.Error()))
	}

	emp, err := s.employees.GetByCredentialID(ctx, cred.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		metrics.ObserveLogin("error")
		return nil, err
	}
	if emp == nil || !emp.IsActive {
		metrics.ObserveLogin("inactive")
		s.logger.Info("login refused: account inactive", slog.String("email", email))
		return nil, domain.ErrAccountInactive
	}
	if !cred.Role.Valid() {
		metrics.ObserveLogin("forbidden")
		return nil, domain.ErrForbidden
	}

	ttl := s.settings.SessionTTL
	if in.RememberMe {
		ttl = s.settings.RememberMeTTL
	}
	res, err := s.issue(cred, emp, emp.MustChangePassword, ttl)
	if err != nil {
		metrics.ObserveLogin("error")
		return nil, err
	}

	metrics.ObserveLogin("success")
	s.logger.Info("user logged in",
		slog.String("user_id", cred.ID),
		slog.String("employee_id", emp.ID),
		slog.String("role", string(cred.Role)),
		slog.String("client_ip", clientIP),
	)
	return res, nil
}

func (s *AuthService) failLogin(ctx context.Context, email, clientIP string) error {
	lockedNow, err := s.lockout.RegisterFailure(ctx, email)
	if err != nil {
		metrics.ObserveLogin("error")
		return err
	}
	s.logger.Info("login failed", slog.String("email", email), slog.String("client_ip", clientIP))
	if lockedNow {
		metrics.ObserveLogin("locked")
		s.logger.Warn("account locked after repeated failures", slog.String("email", email))
		return domain.ErrLockedOut
	}
	metrics.ObserveLogin("invalid")
	return domain.ErrInvalidCredentials
}

func (s *AuthService) issue(cred *domain.Credential, emp *domain.Employee, mustChange bool, ttl time.Duration) (*LoginResult, error) {
	token, sess, err := s.tokens.GenerateToken(domain.Session{
		UserID:             cred.ID,
		EmployeeID:         emp.ID,
		Email:              cred.Email,
		Role:               cred.Role,
		MustChangePassword: mustChange,
	}, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &LoginResult{
		Token:              token,
		TokenType:          "Bearer",
		ExpiresAt:          sess.ExpiresAt,
		EmployeeID:         emp.ID,
		Name:               emp.FullName(),
		Email:              cred.Email,
		Role:               cred.Role,
		MustChangePassword: mustChange,
		Redirect:           RedirectFor(cred.Role, mustChange),
	}, nil
}

// RedirectFor is where a client lands after signing in.
func RedirectFor(role domain.Role, mustChange bool) string {
	switch {
	case mustChange:
		return RedirectChangePassword
	case role.Supervisor():
		return RedirectAdminDashboard
	default:
		return RedirectEmployeeDashboard
	}
}

// Authenticate validates a bearer token and returns its session. Revoked
// tokens are refused. A token whose role is unknown, or whose employee is
// gone or inactive, is revoked on sight.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	sess := claims.Session()

	revoked, err := s.revocations.IsRevoked(ctx, sess.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrUnauthenticated
	}

	if !sess.Role.Valid() {
		return nil, s.signOut(ctx, sess, "unknown role")
	}

	// Role, email and the must-change flag come from the stored rows so that
	// deactivation, demotion and admin password resets apply to open sessions.
	cred, err := s.credentials.GetByID(ctx, sess.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.signOut(ctx, sess, "credential removed")
	}
	if err != nil {
		return nil, err
	}
	emp, err := s.employees.GetByID(ctx, sess.EmployeeID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && emp.CredentialID != cred.ID) {
		return nil, s.signOut(ctx, sess, "employee removed")
	}
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, s.signOut(ctx, sess, "employee inactive")
	}
	if !cred.Role.Valid() {
		return nil, s.signOut(ctx, sess, "unknown role")
	}

	sess.Role = cred.Role
	sess.Email = cred.Email
	sess.MustChangePassword = emp.MustChangePassword
	return sess, nil
}

// signOut revokes a session that may no longer be used and reports it as
// unauthenticated.
func (s *AuthService) signOut(ctx context.Context, sess *domain.Session, reason string) error {
	s.logger.Warn("signing out session",
		slog.String("user_id", sess.UserID),
		slog.String("employee_id", sess.EmployeeID),
		slog.String("reason", reason),
	)
	if err := s.revocations.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		s.logger.Error("failed to revoke session", slog.String("error", err.Error()))
	}
	return domain.ErrUnauthenticated
}

// Logout revokes the session's token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.revocations.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.String("user_id", sess.UserID))
	return nil
}

// ChangePassword replaces the caller's password, clears the must-change flag
// and swaps the session for a fresh token.
func (s *AuthService) ChangePassword(ctx context.Context, sess *domain.Session, in ChangePasswordInput) (*LoginResult, error) {
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	if in.CurrentPassword == "" {
		return nil, domain.Invalid("currentPassword", "is required")
	}
	if in.NewPassword != in.ConfirmPassword {
		return nil, domain.Invalid("confirmPassword", "does not match the new password")
	}
	if err := auth.ValidatePasswordPolicy("newPassword", in.NewPassword); err != nil {
		return nil, err
	}
	if in.NewPassword == in.CurrentPassword {
		return nil, domain.Invalid("newPassword", "must differ from the current password")
	}

	cred, err := s.credentials.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !auth.ComparePassword(cred.PasswordHash, in.CurrentPassword) {
		return nil, domain.Invalid("currentPassword", "is incorrect")
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return nil, err
	}

	var emp *domain.Employee
	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		if err := s.credentials.UpdatePasswordHash(ctx, cred.ID, hash); err != nil {
			return err
		}
		var err error
		if emp, err = s.employees.GetByID(ctx, sess.EmployeeID); err != nil {
			return err
		}
		emp.MustChangePassword = false
		return s.employees.SetMustChangePassword(ctx, emp.ID, false, sess.Actor(), s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	if err := s.revocations.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		s.logger.Warn("failed to revoke previous session", slog.String("error", err.Error()))
	}
	res, err := s.issue(cred, emp, false, s.settings.SessionTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user changed password", slog.String("user_id", cred.ID))
	return res, nil
}

// ForgotPassword starts a self-service reset. The response never reveals
// whether the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}

	if err := s.sendReset(ctx, email); err != nil {
		s.logger.Error("password reset request failed", slog.String("email", email), slog.String("error", err.Error()))
	}
	return ForgotPasswordMessage, nil
}

func (s *AuthService) sendReset(ctx context.Context, email string) error {
	cred, err := s.credentials.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("password reset requested for unknown email", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	emp, err := s.employees.GetByCredentialID(ctx, cred.ID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !emp.IsActive) {
		s.logger.Info("password reset requested for inactive account", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.resets.Issue(ctx, cred.ID, email)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}
	return s.mailer.SendPasswordReset(ctx, email, s.resetLink(email, token))
}

func (s *AuthService) resetLink(email, token string) string {
	q := url.Values{"email": []string{email}, "token": []string{token}}
	base := s.settings.PasswordResetURL
	if strings.Contains(base, "?") {
		return base + "&" + q.Encode()
	}
	return base + "?" + q.Encode()
}

// ResetPassword completes a self-service reset with a single-use token.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return domain.Invalid("confirmPassword", "does not match the new password")
	}
	if err := auth.ValidatePasswordPolicy("password", in.Password); err != nil {
		return err
	}

	credID, err := s.resets.Consume(ctx, strings.TrimSpace(in.Token), email)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}

	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		if err := s.credentials.UpdatePasswordHash(ctx, credID, hash); err != nil {
			return err
		}
		emp, err := s.employees.GetByCredentialID(ctx, credID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.employees.SetMustChangePassword(ctx, emp.ID, false, email, s.clock.Now())
	})
	if err != nil {
		return err
	}

	if err := s.lockout.Reset(ctx, email); err != nil {
		s.logger.Warn("failed to clear lockout", slog.String("email", email), slog.String("error", err.Error()))
	}
	s.logger.Info("password reset completed", slog.String("user_id", credID))
	return nil
}
