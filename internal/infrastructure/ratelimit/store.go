// Package ratelimit implements fixed-window request counting over a
// pluggable store.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key inside a window that starts at the first hit.
type Store interface {
	// Increment adds one hit to key and returns the new count and the time
	// left in the current window. The first hit of a window sets its TTL.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)

	// Get reads the count without consuming a hit. A missing or expired key
	// reports zero.
	Get(ctx context.Context, key string) (count int64, ttl time.Duration, err error)
}
