package repository

import "errors"

// Repository errors
var (
	// ErrReferenceViolation indicates a foreign key pointed at a missing row.
	ErrReferenceViolation = errors.New("referenced row does not exist")

	// ErrPoolTimeout indicates no database connection became free within the
	// configured wait bound.
	ErrPoolTimeout = errors.New("timed out waiting for a database connection")
)

// Cache errors
var (
	// ErrCacheMiss indicates the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable wraps failures talking to the cache or lock backend.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
