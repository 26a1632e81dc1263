package db

import (
	"fmt"

	"github.com/dkovalov/taskboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Group{},
		&models.GroupMember{},
		&models.Task{},
		&models.Attachment{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
