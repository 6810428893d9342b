package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "chatmeter",
		Short:         "Estimate chat token usage and track rolling usage windows",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults plus environment when empty)")

	root.AddCommand(
		newServeCmd(&configPath),
		newRecordCmd(&configPath),
		newStatsCmd(&configPath),
		newTimersCmd(&configPath),
		newChatsCmd(&configPath),
		newSettingsCmd(&configPath),
		newExportCmd(&configPath),
		newImportCmd(&configPath),
		newResetAllCmd(&configPath),
	)
	return root
}
