package main

import (
	"fmt"

	"inventory-api/internal/config"
	"inventory-api/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd manages the Postgres schema
var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|status]",
	Short: "Manage the Postgres schema",
	Long: `Apply, roll back or inspect the goose migrations in MIGRATIONS_DIR.

Available actions:
  up     - apply all pending migrations (default)
  down   - roll back the most recent migration
  status - print the state of every migration`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Storage.Driver != config.DriverPostgres {
		log.Warn("Migrations only apply to the postgres driver", zap.String("driver", cfg.Storage.Driver))
	}

	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	dbService, err := database.New(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer dbService.Close()

	db := dbService.DB().DB
	dir := cfg.Storage.MigrationsDir

	switch action {
	case "up":
		return database.RunMigrations(db, dir, log)
	case "down":
		if err := database.RollbackMigration(db, dir); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		log.Info("Rolled back one migration")
		return nil
	default:
		return database.GetMigrationStatus(db, dir)
	}
}
