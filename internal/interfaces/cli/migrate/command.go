// Package migrate implements the database migration command.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"veilink/internal/infrastructure/config"
	"veilink/internal/infrastructure/database"
	"veilink/internal/infrastructure/migration"
	"veilink/internal/shared/logger"
)

var env string

// NewCommand creates the migrate command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Create or update the database tables for the control plane.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := migration.AutoMigrate(database.Get()); err != nil {
		return err
	}

	logger.Info("migration completed")
	return nil
}
