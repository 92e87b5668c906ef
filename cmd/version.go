package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragd/ragd/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server and protocol version",
	Run: func(cmd *cobra.Command, _ []string) {
		cfg := config.Load()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (protocol %s)\n", cfg.ServerName, cfg.ServerVersion, cfg.ProtocolVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
