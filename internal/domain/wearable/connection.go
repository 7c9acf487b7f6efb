package wearable

import (
	"time"
)

// Connection is the durable per-(user, provider) OAuth credential record.
// At most one exists per pair; it is created by the first successful code
// exchange, mutated by every refresh and sync, and removed on disconnect.
type Connection struct {
	ID             uint
	UserID         uint
	Provider       Provider
	AccessToken    string
	RefreshToken   string
	ExpiresAt      *time.Time
	ExternalUserID string
	Scopes         []string
	LastSyncAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TokenGrant is a normalized token-endpoint response, from either an
// authorization-code exchange or a refresh.
type TokenGrant struct {
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
	ExternalUserID string
	Scopes         []string
}

// NewConnection builds a Connection from a first code exchange.
func NewConnection(userID uint, provider Provider, grant TokenGrant, now time.Time) *Connection {
	c := &Connection{
		UserID:    userID,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.ApplyGrant(grant, now)
	return c
}

// TokenExpired reports whether the access token has passed its expiry.
// A connection without a recorded expiry is treated as still valid; the
// provider will reject it with a 401 if not.
func (c *Connection) TokenExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// ApplyGrant merges a token grant into the connection. The previous refresh
// token is retained when the provider omits a new one, and the expiry only
// ever moves forward.
func (c *Connection) ApplyGrant(grant TokenGrant, now time.Time) {
	c.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		c.RefreshToken = grant.RefreshToken
	}
	if !grant.ExpiresAt.IsZero() {
		if c.ExpiresAt == nil || grant.ExpiresAt.After(*c.ExpiresAt) {
			exp := grant.ExpiresAt
			c.ExpiresAt = &exp
		}
	}
	if grant.ExternalUserID != "" {
		c.ExternalUserID = grant.ExternalUserID
	}
	if len(grant.Scopes) > 0 {
		c.Scopes = grant.Scopes
	}
	c.UpdatedAt = now
}

// MarkSynced records a completed sync.
func (c *Connection) MarkSynced(now time.Time) {
	t := now
	c.LastSyncAt = &t
	c.UpdatedAt = now
}
