package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// ConnectionCache is the short-TTL read-through cache in front of the
// connection repository. Cache failures degrade to misses; the repository
// remains the source of truth.
type ConnectionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Interface
}

func NewConnectionCache(client *redis.Client, ttl time.Duration, log logger.Interface) *ConnectionCache {
	return &ConnectionCache{
		client: client,
		prefix: "wearable:conn:",
		ttl:    ttl,
		logger: log,
	}
}

func (c *ConnectionCache) key(userID uint, provider wearable.Provider) string {
	return fmt.Sprintf("%s%d:%s", c.prefix, userID, provider)
}

// Get returns the cached connection, or nil on a miss.
func (c *ConnectionCache) Get(ctx context.Context, userID uint, provider wearable.Provider) *wearable.Connection {
	payload, err := c.client.Get(ctx, c.key(userID, provider)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debugw("connection cache read failed", "error", err)
		}
		return nil
	}

	var conn wearable.Connection
	if err := json.Unmarshal([]byte(payload), &conn); err != nil {
		c.logger.Warnw("corrupt connection cache entry, dropping", "error", err)
		c.Invalidate(ctx, userID, provider)
		return nil
	}
	return &conn
}

// Set caches the connection for the configured TTL.
func (c *ConnectionCache) Set(ctx context.Context, conn *wearable.Connection) {
	payload, err := json.Marshal(conn)
	if err != nil {
		c.logger.Warnw("failed to marshal connection for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(conn.UserID, conn.Provider), payload, c.ttl).Err(); err != nil {
		c.logger.Debugw("connection cache write failed", "error", err)
	}
}

// Invalidate removes the cached entry, if any.
func (c *ConnectionCache) Invalidate(ctx context.Context, userID uint, provider wearable.Provider) {
	if err := c.client.Del(ctx, c.key(userID, provider)).Err(); err != nil {
		c.logger.Debugw("connection cache invalidation failed", "error", err)
	}
}
