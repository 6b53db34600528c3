package repositories

import (
	"context"
	"time"
)

// CacheRepositoryInterface is the slice of Redis the services rely on.
// Get returns ErrCacheMiss when the key does not exist.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// SetNX sets key only when it is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	DelByPattern(ctx context.Context, pattern string) error
}
