package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"github.com/taskbase/taskbase/internal/auth"
	"github.com/taskbase/taskbase/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	cmd.AddCommand(&cobra.Command{
		Use:   "example",
		Short: "Print an example configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.DumpExampleConfig(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			cmd.Println("configuration ok")
			return nil
		},
	})
	return cmd
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a bearer token for the producer API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespaces, _ := cmd.Flags().GetStringSlice("namespace")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled() {
				return errors.New("auth.jwt_secret is not configured")
			}

			svc, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry())
			if err != nil {
				return err
			}
			resp, err := svc.IssueToken(args[0], namespaces)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringSlice("namespace", nil, "Limit the token to these namespaces (repeatable)")
	return cmd
}
