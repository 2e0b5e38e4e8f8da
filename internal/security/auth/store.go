package auth

import (
	"context"
	"time"
)

// Store is the key-value subset the redis-backed auth components need.
// *redis.Client from internal/infrastructure/redis satisfies it.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}
