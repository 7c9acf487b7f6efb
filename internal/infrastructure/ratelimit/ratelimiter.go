package ratelimit

import (
	"context"
	"time"
)

// RateLimiter enforces a fixed-window quota per key. Allow reports whether
// the call identified by key may proceed under the given limit; an allowed
// call is counted against the current window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
