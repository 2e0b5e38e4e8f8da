package auth

import (
	"context"
	"fmt"
	"time"
)

// Revocations is a denylist of token IDs kept until the token would have
// expired anyway.
type Revocations struct {
	store Store
	now   func() time.Time
}

func NewRevocations(store Store) *Revocations {
	return &Revocations{store: store, now: time.Now}
}

func revokedKey(tokenID string) string { return "auth:revoked:" + tokenID }

// Revoke signs out the token identified by tokenID.
func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.store.Set(ctx, revokedKey(tokenID), 1, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	ok, err := r.store.Exists(ctx, revokedKey(tokenID))
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return ok, nil
}
