package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "picabot",
	Short: "picabot is a chat bot client for Picarto.tv",
	Long: `picabot maintains a persistent connection to a Picarto.tv chat
server, decodes incoming frames into chat messages, routes them to
command handlers and event listeners, and reconnects automatically
when the connection drops (bounded to five attempts per ten seconds).`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}
