package db

import (
	"fundwatch/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Campaign{},
		&models.WebhookEvent{},
		&models.SourceState{},
	)
}
