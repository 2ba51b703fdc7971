package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rongsox/dashboard/internal"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			_, logger, db, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			switch action {
			case "status":
				return internal.MigrationStatus(db)
			case "down":
				if err := internal.RollbackMigration(db); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				logger.Info("Rolled back latest migration")
			default:
				if err := internal.RunMigrations(db); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				logger.Info("Database migrated")
			}
			return nil
		},
	}
}
