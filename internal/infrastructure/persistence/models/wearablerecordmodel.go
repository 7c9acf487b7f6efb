package models

import (
	"time"

	"gorm.io/datatypes"
)

// WearableRecordModel represents the database persistence model for daily
// wearable records. Date is stored at day granularity; (UserID, Provider,
// Date) is unique so re-syncing a day converges to one row.
type WearableRecordModel struct {
	ID            uint           `gorm:"primarykey"`
	UserID        uint           `gorm:"not null;uniqueIndex:idx_wearable_record_day;index:idx_wearable_record_user_date,priority:1"`
	Provider      string         `gorm:"not null;size:20;uniqueIndex:idx_wearable_record_day"`
	Date          time.Time      `gorm:"not null;uniqueIndex:idx_wearable_record_day;index:idx_wearable_record_user_date,priority:2"`
	Metrics       datatypes.JSON `gorm:"not null"`
	RecoveryScore int            `gorm:"not null;default:0"`
	TrainingLoad  int            `gorm:"not null;default:0"`
	Status        string         `gorm:"not null;size:20"`
	LastSyncedAt  time.Time      `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (WearableRecordModel) TableName() string {
	return "wearable_records"
}
