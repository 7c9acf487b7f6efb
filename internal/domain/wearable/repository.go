package wearable

import (
	"context"
	"time"
)

// ConnectionRepository persists per-(user, provider) OAuth connections.
type ConnectionRepository interface {
	// GetByUserAndProvider returns (nil, nil) when no connection exists.
	GetByUserAndProvider(ctx context.Context, userID uint, provider Provider) (*Connection, error)
	// Upsert creates or replaces the connection for (conn.UserID, conn.Provider).
	Upsert(ctx context.Context, conn *Connection) error
	Delete(ctx context.Context, userID uint, provider Provider) error
	// ListAll returns every stored connection, for the background sync job.
	ListAll(ctx context.Context) ([]*Connection, error)
}

// RecordQuery filters record listings. Nil fields are unset.
type RecordQuery struct {
	Provider  *Provider
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// RecordRepository persists daily wearable records.
type RecordRepository interface {
	// Upsert writes the record keyed by (UserID, Provider, Date); syncing
	// the same day twice converges to one row.
	Upsert(ctx context.Context, record *Record) error
	ListByUser(ctx context.Context, userID uint, q RecordQuery) ([]*Record, error)
}
