package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldmark/framebot/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "framebot",
	Short: "Frame-decision pipeline server for emulator clients",
	Long: "Framebot accepts screen captures from emulator clients over TCP,\n" +
		"runs each frame through a staged decision pipeline and answers with a\n" +
		"controller action mask, journalling training records along the way.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.Version = version.Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
