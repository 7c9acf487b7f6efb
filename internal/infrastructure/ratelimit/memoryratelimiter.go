package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowState struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter is an in-process fixed window counter. It only guards a
// single instance; deployments with multiple replicas need the Redis limiter.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*windowState
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{windows: make(map[string]*windowState)}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &windowState{count: 1, resetAt: now.Add(window)}
		return true, nil
	}

	if w.count >= limit {
		// Denied requests are not counted against the window.
		return false, nil
	}

	w.count++
	return true, nil
}
