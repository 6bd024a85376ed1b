package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskbase/taskbase/internal/database"
	"github.com/taskbase/taskbase/internal/route"
	"github.com/taskbase/taskbase/internal/store"
)

func newNotifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify <namespace> [payload]",
		Short: "Send a task_ready notification for a namespace",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")

			channel := args[0]
			if !raw {
				var err error
				if channel, err = route.ForNamespace(args[0]); err != nil {
					return err
				}
			}
			payload := ""
			if len(args) == 2 {
				payload = args[1]
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, closeLog, err := setupLogger(cfg, true)
			if err != nil {
				return err
			}
			defer closeLog()

			pool, err := database.NewPool(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.New(pool).Notify(cmd.Context(), channel, payload); err != nil {
				return err
			}
			logger.Info("Notification sent", "channel", channel)
			fmt.Fprintln(cmd.OutOrStdout(), channel)
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "Treat the first argument as a complete channel name")
	return cmd
}
