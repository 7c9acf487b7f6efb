package migration

import (
	"github.com/vitalink-io/vitalink/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists the models covered by GORM AutoMigrate. Used in
// development; production schemas go through the goose scripts.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.WearableConnectionModel{},
		&models.WearableRecordModel{},
	}
}
