// Package main wires configuration, logging, storage backends, the note
// service client, and the sync pipeline together, and exposes them behind
// the run and serve commands.
package main

import (
	"cmp"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// configPath is the --config persistent flag value.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "keepsync",
	Short: "Sync a checklist from the note service into versioned storage",
	Long: `keepsync harvests a checklist from the note service, normalizes it,
and publishes it to durable storage only when its content changed, keeping
an append-only history of every change.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")
	rootCmd.AddCommand(runCmd, serveCmd)
}

func main() {
	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
