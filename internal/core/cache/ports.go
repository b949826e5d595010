package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is the key/value port backing sessions, OTP challenges and gig completion codes.
type Cache interface {
	// Get retrieves a value by key. A missing key yields an error wrapping ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Incr atomically increments a counter and returns the new value.
	// A new counter inherits ttl; existing counters keep theirs.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Ping checks if the cache service is reachable.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}
