package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "taskbase",
		Short:        "Namespaced task queue on PostgreSQL",
		Long:         "taskbase stores tasks in PostgreSQL and wakes consumers with LISTEN/NOTIFY when tasks in their namespaces become ready.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Path to the configuration file (TASKBASE_* variables are used when it does not exist)")

	rootCmd.AddCommand(
		newServeCommand(),
		newListenCommand(),
		newNotifyCommand(),
		newPushCommand(),
		newMigrateCommand(),
		newConfigCommand(),
		newTokenCommand(),
	)
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
