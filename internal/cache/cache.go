// Package cache defines the key-value cache port used for cache-aside reads,
// together with the codec that turns domain values into cache payloads.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a key-value store with a per-key time to live.
// Absence of a key always means the value must be recomputed.
type Cache interface {
	// Get returns the stored payload or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
