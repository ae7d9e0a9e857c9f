// Package ctl implements parcelctl, the operator command line for
// ParcelTrack: running migrations and provisioning accounts without
// going through the HTTP API.
package ctl

import (
	"os"

	"github.com/spf13/cobra"
)

var dsn string

var rootCmd = &cobra.Command{
	Use:   "parcelctl",
	Short: "Operator tooling for the ParcelTrack server",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (defaults to server configuration)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
