package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Lockout tracks failed sign-in attempts per email and locks the account for
// a fixed window once the limit is reached.
type Lockout struct {
	store       Store
	maxAttempts int
	window      time.Duration
}

func NewLockout(store Store, maxAttempts int, window time.Duration) *Lockout {
	return &Lockout{store: store, maxAttempts: maxAttempts, window: window}
}

func failKey(email string) string { return "auth:failures:" + strings.ToLower(email) }
func lockKey(email string) string { return "auth:locked:" + strings.ToLower(email) }

// Locked reports whether email is locked and for how long.
func (l *Lockout) Locked(ctx context.Context, email string) (bool, time.Duration, error) {
	ttl, err := l.store.TTL(ctx, lockKey(email))
	if err != nil {
		return false, 0, fmt.Errorf("lockout: check: %w", err)
	}
	if ttl <= 0 {
		// -2: no key. -1 cannot happen since locks are always set with a TTL.
		return false, 0, nil
	}
	return true, ttl, nil
}

// RegisterFailure counts a failed attempt and returns true when this
// failure locked the account.
func (l *Lockout) RegisterFailure(ctx context.Context, email string) (bool, error) {
	n, err := l.store.IncrWithTTL(ctx, failKey(email), l.window)
	if err != nil {
		return false, fmt.Errorf("lockout: count failure: %w", err)
	}
	if int(n) < l.maxAttempts {
		return false, nil
	}
	if err := l.store.Set(ctx, lockKey(email), n, l.window); err != nil {
		return false, fmt.Errorf("lockout: lock: %w", err)
	}
	if err := l.store.Delete(ctx, failKey(email)); err != nil {
		return true, fmt.Errorf("lockout: reset counter: %w", err)
	}
	return true, nil
}

// Reset clears failures and any active lock.
func (l *Lockout) Reset(ctx context.Context, email string) error {
	if err := l.store.Delete(ctx, failKey(email), lockKey(email)); err != nil {
		return fmt.Errorf("lockout: reset: %w", err)
	}
	return nil
}
