package repository

import (
	"context"
	"time"
)

// Cache holds short-lived counters shared by the login limiter. It lives in
// process memory on a single node and in Redis otherwise.
type Cache interface {
	// Get returns ErrCacheMiss when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Increment adds delta to the counter at key, creating it when absent.
	Increment(ctx context.Context, key string, delta int64) (int64, error)

	// Expire sets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// CacheKeys builds the keys Monedero stores in a Cache.
var CacheKeys = cacheKeys{}

type cacheKeys struct{}

// LoginAttempts returns the key counting failed logins for an email.
func (cacheKeys) LoginAttempts(email string) string {
	return "auth:login:failures:" + email
}
