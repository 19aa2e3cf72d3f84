// Package lock defines the non-blocking named-resource lock port.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned by TryAcquire when another holder owns the key.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker grants mutual exclusion on a key for at most ttl.
//
// Acquisition never waits: a contended key fails immediately. The returned
// token proves ownership and is required to release; a lock that outlives its
// ttl frees itself, after which releasing with the old token is a no-op.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, key, token string) error
}
