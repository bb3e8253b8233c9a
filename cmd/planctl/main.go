package main

import (
	"fmt"
	"os"

	"github.com/plannerd/taskplanner/cmd/planctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "planctl",
		Short: "Operations tool for the TaskPlanner backend",
		Long:  "CLI tool for inspecting the remote calendar mirror and exporting tasks",
	}

	rootCmd.PersistentFlags().StringVar(&commands.ConfigFile, "config", "", "Path to a YAML config file overriding environment settings")

	rootCmd.AddCommand(commands.NewCalendarsCmd())
	rootCmd.AddCommand(commands.NewEventsCmd())
	rootCmd.AddCommand(commands.NewExportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
