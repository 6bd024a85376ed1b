package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/taskbase/taskbase/internal/channels"
)

func newListenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen [namespace...]",
		Short: "Claim ready tasks and print them as JSON lines",
		Long:  "listen waits for task_ready notifications on the given namespaces (or the configured ones), claims the ready tasks and prints one JSON object per task.",
		RunE: func(cmd *cobra.Command, args []string) error {
			once, _ := cmd.Flags().GetBool("once")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, closeLog, err := setupLogger(cfg, true)
			if err != nil {
				return err
			}
			defer closeLog()

			namespaces := cfg.Service.Namespaces
			if len(args) > 0 {
				namespaces = args
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			be, err := connectConsumer(ctx, cfg, namespaces, logger)
			if err != nil {
				return err
			}
			defer be.Close(logger)
			channels.StartFailureLogger(ctx, be.hub, logger)

			enc := json.NewEncoder(cmd.OutOrStdout())

			// Tasks that became ready before we subscribed have no pending notification.
			backlog, err := be.svc.FetchReady(ctx)
			if err != nil {
				return err
			}
			for _, t := range backlog {
				if err := enc.Encode(newTaskLine(t)); err != nil {
					return err
				}
			}
			if once && len(backlog) > 0 {
				return nil
			}

			for {
				tasks, err := be.svc.Next(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				logger.Debug("Claimed ready tasks", "count", len(tasks))
				for _, t := range tasks {
					if err := enc.Encode(newTaskLine(t)); err != nil {
						return err
					}
				}
				if once && len(tasks) > 0 {
					return nil
				}
			}
		},
	}
	cmd.Flags().Bool("once", false, "Exit after the first non-empty batch")
	return cmd
}
