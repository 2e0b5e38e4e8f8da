package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/taskdesk/internal/security/audit"
	"github.com/aryan0dhankhar/taskdesk/internal/security/auth"
	"github.com/aryan0dhankhar/taskdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	audit       *audit.Logger
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, auditLog *audit.Logger, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &AuthHandler{
		authService: authService,
		audit:       auditLog,
		logger:      logger,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}, middleware.ClientIP(r))
	if err != nil {
		h.audit.LogLogin(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), "failed", service.PublicMessage(err))
		writeError(w, r, h.logger, err)
		return
	}

	h.audit.LogLogin(r.Context(), result.Email, "success", "")
	writeJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), session(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "signed out"})
}

// PasswordPolicy describes the rules for a user-chosen password.
type PasswordPolicy struct {
	MinLength int      `json:"minLength"`
	MaxLength int      `json:"maxLength"`
	Requires  []string `json:"requires"`
}

var passwordPolicy = PasswordPolicy{
	MinLength: auth.MinPasswordLength,
	MaxLength: auth.MaxPasswordLength,
	Requires:  []string{"uppercase", "lowercase", "digit", "symbol"},
}

type ChangePasswordFormResponse struct {
	MustChangePassword bool           `json:"mustChangePassword"`
	Policy             PasswordPolicy `json:"policy"`
}

// ChangePasswordForm handles GET /api/auth/change-password
func (h *AuthHandler) ChangePasswordForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ChangePasswordFormResponse{
		MustChangePassword: session(r).MustChangePassword,
		Policy:             passwordPolicy,
	})
}

// ChangePasswordRequest represents change password request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword handles POST /api/auth/change-password. The response
// carries a fresh token; the old one is revoked.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.ChangePassword(r.Context(), session(r), service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type ForgotPasswordFormResponse struct {
	Instructions string `json:"instructions"`
}

// ForgotPasswordForm handles GET /api/auth/forgot-password
func (h *AuthHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ForgotPasswordFormResponse{
		Instructions: "Enter the email address of your account and we will send you a link to reset your password.",
	})
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password. The answer is the
// same whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	msg, err := h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	err := h.authService.ResetPassword(r.Context(), service.ResetPasswordInput{
		Email:           req.Email,
		Token:           req.Token,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "password has been reset; you can now sign in"})
}
