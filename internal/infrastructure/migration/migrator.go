// Package migration keeps the database schema in sync with the
// persistence models.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"veilink/internal/infrastructure/persistence/models"
)

// AutoMigrate creates or updates the tables for every persistence
// model. Safe to run repeatedly; gorm only applies the delta.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.UserModel{},
		&models.AgentModel{},
		&models.AgentShareModel{},
		&models.ForwardModel{},
		&models.ForwardTrafficModel{},
		&models.EngineConfigModel{},
		&models.WalletModel{},
		&models.BalanceLogModel{},
		&models.TaskModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}
