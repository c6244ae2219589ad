package repository

import (
	"context"
	"time"
)

// LockStore hands out short-lived named leases so that only one process runs
// a periodic job at a time.
// Implementations: Redis (multi-instance) or in-memory (single instance / tests).
type LockStore interface {
	// Acquire takes key for owner until ttl elapses. It reports false when
	// another owner holds a live lease.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release drops the lease only if owner still holds it.
	Release(ctx context.Context, key, owner string) error
}
