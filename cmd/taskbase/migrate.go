package main

import (
	"github.com/spf13/cobra"
	"github.com/taskbase/taskbase/internal/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	for _, sub := range []struct {
		name  string
		short string
	}{
		{database.MigrateUp, "Apply all pending migrations"},
		{database.MigrateDown, "Roll back the most recent migration"},
		{database.MigrateReset, "Roll back every migration, dropping all taskbase objects"},
		{database.MigrateStatus, "Print migration status"},
	} {
		command := sub.name
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				logger, closeLog, err := setupLogger(cfg, false)
				if err != nil {
					return err
				}
				defer closeLog()

				db, err := database.Open(cmd.Context(), cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := database.Migrate(cmd.Context(), db, command); err != nil {
					return err
				}
				logger.Info("Migration finished", "command", command, "schema", cfg.Database.Schema)
				return nil
			},
		})
	}

	return cmd
}
