package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrAccountInactive):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrLockedOut):
		return http.StatusLocked
	case errors.Is(err, domain.ErrPasswordChangeRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInactiveAssignee):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidResetToken):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Unexpected errors are logged and reported
// as a generic failure.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: service.PublicMessage(err)}

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		resp.Field = ve.Field
	case errors.Is(err, domain.ErrEmailTaken):
		resp.Field = "email"
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("", "request body is required")
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return domain.Invalid("", "request body is too large")
		}
		return domain.Invalid("", "invalid request: %s", strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}

// session returns the authenticated session; routes that use it are always
// behind the Authenticate middleware.
func session(r *http.Request) *domain.Session {
	return middleware.SessionFromContext(r.Context())
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.Format(dateLayout))), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		d.Time = time.Time{}
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("date must be a string")
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, unquoted); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("date %q must be YYYY-MM-DD", unquoted)
}

// timePtr converts an optional date to *time.Time.
func (d *Date) timePtr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func datePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{*t}
}

func queryBool(r *http.Request, key string) (*bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, domain.Invalid(key, "must be true or false")
	}
	return &b, nil
}
