package database

import (
	"fmt"

	"gorm.io/gorm"

	"workspace-state-engine/internal/domain"
)

// AutoMigrate creates or updates the local-store schema
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.StateSnapshot{}); err != nil {
		return fmt.Errorf("failed to migrate state_snapshots: %w", err)
	}
	return nil
}
