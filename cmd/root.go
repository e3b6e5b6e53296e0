// Package cmd is the process entrypoint: a cobra root command with a
// serve subcommand.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "code-push-server",
	Short: "Mobile-client-facing acquisition service for over-the-air JS bundle updates",
}

// Execute runs the root command, exiting non-zero on fatal startup
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
