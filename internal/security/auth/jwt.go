package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

type Claims struct {
	UserID             string `json:"user_id"`
	EmployeeID         string `json:"employee_id"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
	jwt.RegisteredClaims
}

// Session converts validated claims into the request principal.
func (c *Claims) Session() *domain.Session {
	s := &domain.Session{
		UserID:             c.UserID,
		EmployeeID:         c.EmployeeID,
		Email:              c.Email,
		Role:               domain.Role(c.Role),
		MustChangePassword: c.MustChangePassword,
		TokenID:            c.ID,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

type TokenManager struct {
	secret string
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "taskdesk"
	}
	return &TokenManager{secret: secret, issuer: issuer, now: time.Now}
}

// GenerateToken signs a session token for the identity in sess. The token ID
// and expiry are filled into the returned session.
func (tm *TokenManager) GenerateToken(sess domain.Session, expiresIn time.Duration) (string, *domain.Session, error) {
	if sess.UserID == "" || sess.EmployeeID == "" {
		return "", nil, fmt.Errorf("user_id and employee_id required")
	}
	now := tm.now()
	sess.TokenID = uuid.NewString()
	sess.ExpiresAt = now.Add(expiresIn)

	claims := Claims{
		UserID:             sess.UserID,
		EmployeeID:         sess.EmployeeID,
		Email:              sess.Email,
		Role:               string(sess.Role),
		MustChangePassword: sess.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, &sess, nil
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
