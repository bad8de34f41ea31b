// Package kvstore is a small key-value abstraction used for rate limit
// counters and CSRF tokens. A Redis-backed store is used in deployments with
// multiple replicas; the in-memory store serves single-node setups and tests.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a minimal expiring key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr increments a counter, creating it with the given ttl when absent,
	// and returns the new value. The ttl is only applied on creation so a
	// fixed window does not slide.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
