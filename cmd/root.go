// Package cmd wires the CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wingman2025/birdtarifa/cmd/serve"
	"github.com/wingman2025/birdtarifa/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "birdtarifa",
		Short: "Bird Tarifa prediction API",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")

	rootCmd.AddCommand(serve.Command(settings))
	return rootCmd
}
