// Package cmd defines the ragd command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "Local retrieval-augmented document store and RPC server",
	Long:  `ragd stores documents with content-addressed deduplication, ranks them with a cascading dense/sparse/substring retrieval engine, and exposes both over a line-delimited JSON-RPC tool catalogue and a WebSocket projection stream.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// RootCmd returns the root command, for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
