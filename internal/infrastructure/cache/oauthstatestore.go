// Package cache provides the Redis-backed short-lived stores used by the
// wearable integration: OAuth CSRF state entries and the read-through
// connection cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/biztime"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// OAuthState is the payload bound to one CSRF state value for the duration
// of an authorization round-trip. The PKCE code verifier never leaves the
// server.
type OAuthState struct {
	UserID       uint              `json:"user_id"`
	Provider     wearable.Provider `json:"provider"`
	CodeVerifier string            `json:"code_verifier,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// OAuthStateStore stores OAuth state entries with a TTL and consume-once
// semantics. Redis is the primary backend; on Redis failure it degrades to
// an in-process map, which is only correct for single-instance deployments
// because a callback may land on a different instance.
type OAuthStateStore struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	fallback *memoryStateStore
	logger   logger.Interface
}

// NewOAuthStateStore creates a state store. Recommended TTL is 10 minutes.
func NewOAuthStateStore(client *redis.Client, ttl time.Duration, log logger.Interface) *OAuthStateStore {
	return &OAuthStateStore{
		client:   client,
		prefix:   "wearable:oauth:state:",
		ttl:      ttl,
		fallback: newMemoryStateStore(),
		logger:   log,
	}
}

// Set stores the state entry with the configured TTL.
func (s *OAuthStateStore) Set(ctx context.Context, state string, data OAuthState) error {
	if state == "" {
		return errors.NewValidationError("state cannot be empty")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal oauth state: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+state, payload, s.ttl).Err(); err != nil {
		s.logger.Warnw("redis unavailable, storing oauth state in process memory",
			"error", err, "provider", data.Provider)
		s.fallback.store(state, data, s.ttl)
	}
	return nil
}

// Consume atomically retrieves and deletes the state entry. A missing,
// expired or already-consumed state yields an invalid_oauth_state error.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	if state == "" {
		return nil, errors.NewInvalidOAuthStateError("state cannot be empty")
	}

	// GETDEL makes the read-once semantics atomic, preventing replay.
	payload, err := s.client.GetDel(ctx, s.prefix+state).Result()
	switch {
	case err == nil:
		var data OAuthState
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
		}
		return &data, nil
	case err == redis.Nil:
		// Not in Redis; the entry may have been written to the fallback.
		if data, ok := s.fallback.consume(state); ok {
			return data, nil
		}
		return nil, errors.NewInvalidOAuthStateError()
	default:
		s.logger.Warnw("redis unavailable, consuming oauth state from process memory", "error", err)
		if data, ok := s.fallback.consume(state); ok {
			return data, nil
		}
		return nil, errors.NewInvalidOAuthStateError()
	}
}

// memoryStateStore is the in-process fallback with timer-based eviction.
type memoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryStateEntry
}

type memoryStateEntry struct {
	data      OAuthState
	expiresAt time.Time
	timer     *time.Timer
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{entries: make(map[string]memoryStateEntry)}
}

func (m *memoryStateStore) store(state string, data OAuthState, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[state]; ok {
		existing.timer.Stop()
	}
	m.entries[state] = memoryStateEntry{
		data:      data,
		expiresAt: biztime.NowUTC().Add(ttl),
		timer: time.AfterFunc(ttl, func() {
			m.mu.Lock()
			delete(m.entries, state)
			m.mu.Unlock()
		}),
	}
}

func (m *memoryStateStore) consume(state string) (*OAuthState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[state]
	if !ok {
		return nil, false
	}
	entry.timer.Stop()
	delete(m.entries, state)

	if biztime.NowUTC().After(entry.expiresAt) {
		return nil, false
	}
	return &entry.data, true
}
