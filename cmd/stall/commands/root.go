// Package commands implements the stall CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stall",
	Short: "A small digital-goods marketplace",
	Long: `Stall is a small digital-goods marketplace: sellers publish
products with an image and a downloadable file, visitors browse public
profiles, fill a session-bound cart, and check out through a payment
gateway.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routesCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
