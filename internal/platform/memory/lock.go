package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasklist-api/internal/lock"
	"github.com/puzpuzpuz/xsync/v3"
)

type lease struct {
	token     string
	expiresAt time.Time
}

// Locker implements lock.Locker on a concurrent map. Each acquire and release
// is a single atomic Compute on the key.
type Locker struct {
	leases *xsync.MapOf[string, lease]
	now    func() time.Time
}

var _ lock.Locker = (*Locker)(nil)

// NewLocker creates an in-process lock.
func NewLocker() *Locker {
	return &Locker{
		leases: xsync.NewMapOf[string, lease](),
		now:    time.Now,
	}
}

// TryAcquire implements lock.Locker.
func (l *Locker) TryAcquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	now := l.now()
	token := uuid.NewString()
	acquired := false

	l.leases.Compute(key, func(old lease, loaded bool) (lease, bool) {
		if loaded && now.Before(old.expiresAt) {
			return old, false
		}
		acquired = true
		return lease{token: token, expiresAt: now.Add(ttl)}, false
	})

	if !acquired {
		return "", lock.ErrNotAcquired
	}
	return token, nil
}

// Release implements lock.Locker. Only the current holder's token frees the key.
func (l *Locker) Release(_ context.Context, key, token string) error {
	l.leases.Compute(key, func(old lease, loaded bool) (lease, bool) {
		if !loaded {
			return old, true
		}
		return old, old.token == token
	})
	return nil
}
