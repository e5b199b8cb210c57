// Package main runs the advocacy message wizard API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "advocate-api",
	Short: "Advocacy message wizard API",
	Long: `advocate-api hosts advocacy message wizard sessions over HTTP.

Configuration is read from ADVOCATE_* environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(flowCmd)
}
