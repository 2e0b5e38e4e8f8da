package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
	"github.com/aryan0dhankhar/taskdesk/internal/infrastructure/redis"
)

// ResetTokens issues single-use password reset tokens. Only a hash of the
// token is stored.
type ResetTokens struct {
	store Store
	ttl   time.Duration
}

func NewResetTokens(store Store, ttl time.Duration) *ResetTokens {
	return &ResetTokens{store: store, ttl: ttl}
}

func resetKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:reset:" + hex.EncodeToString(sum[:])
}

// Issue creates a token bound to the credential and email.
func (rt *ResetTokens) Issue(ctx context.Context, credentialID, email string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	value := credentialID + "|" + strings.ToLower(email)
	if err := rt.store.Set(ctx, resetKey(token), value, rt.ttl); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Consume validates and burns the token, returning the credential ID.
func (rt *ResetTokens) Consume(ctx context.Context, token, email string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidResetToken
	}
	value, err := rt.store.GetDel(ctx, resetKey(token))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return "", domain.ErrInvalidResetToken
	}
	if err != nil {
		return "", fmt.Errorf("load reset token: %w", err)
	}
	credentialID, boundEmail, ok := strings.Cut(value, "|")
	if !ok || boundEmail != strings.ToLower(email) {
		return "", domain.ErrInvalidResetToken
	}
	return credentialID, nil
}
