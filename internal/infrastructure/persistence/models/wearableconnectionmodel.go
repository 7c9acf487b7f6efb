package models

import "time"

// WearableConnectionModel represents the database persistence model for
// wearable OAuth connections.
type WearableConnectionModel struct {
	ID             uint   `gorm:"primarykey"`
	UserID         uint   `gorm:"not null;uniqueIndex:idx_wearable_conn_user_provider"`
	Provider       string `gorm:"not null;size:20;uniqueIndex:idx_wearable_conn_user_provider"`
	AccessToken    string `gorm:"not null;type:text"`
	RefreshToken   string `gorm:"type:text"`
	ExpiresAt      *time.Time
	ExternalUserID string `gorm:"size:255;column:external_user_id"`
	Scopes         string `gorm:"size:500"`
	LastSyncAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (WearableConnectionModel) TableName() string {
	return "wearable_connections"
}
