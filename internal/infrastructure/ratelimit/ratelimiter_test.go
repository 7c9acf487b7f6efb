package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisRateLimiter_DeniesBeyondLimit(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "user:1:fitbit", 5, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "user:1:fitbit", 5, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_WindowExpiryResets(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Allow(ctx, "user:1:polar", 2, time.Hour)
		require.NoError(t, err)
	}
	allowed, err := limiter.Allow(ctx, "user:1:polar", 2, time.Hour)
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(61 * time.Minute)

	allowed, err = limiter.Allow(ctx, "user:1:polar", 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "user:1:fitbit", 1, time.Hour)
	require.NoError(t, err)
	require.True(t, allowed)
	allowed, err = limiter.Allow(ctx, "user:1:fitbit", 1, time.Hour)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:2:fitbit", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed, "a different user must have its own window")
}

func TestMemoryRateLimiter_DeniesBeyondLimit(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "k", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "k", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestMemoryRateLimiter_ResetsAfterWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_ZeroLimitAlwaysAllows(t *testing.T) {
	limiter := NewMemoryRateLimiter()

	allowed, err := limiter.Allow(context.Background(), "k", 0, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed)
}
