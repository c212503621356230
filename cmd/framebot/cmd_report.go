package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldmark/framebot/internal/journal"
	"github.com/fieldmark/framebot/internal/report"
)

var (
	reportDBPath string
	reportClient string
	reportLimit  int
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render an HTML training report for one client",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDBPath, "db", "framebot.db", "path to the journal database")
	reportCmd.Flags().StringVar(&reportClient, "client", "", "client UUID (required)")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 500, "max journal entries to include")
	reportCmd.Flags().StringVar(&reportOut, "out", "report.html", "output HTML file")
	reportCmd.MarkFlagRequired("client")
}

func runReport(cmd *cobra.Command, _ []string) error {
	clientID, err := uuid.Parse(reportClient)
	if err != nil {
		return fmt.Errorf("invalid --client: %w", err)
	}

	store, err := journal.OpenStore(reportDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	gen := report.NewGenerator(store)
	if err := gen.WriteFile(reportOut, clientID, reportLimit); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", reportOut)
	return nil
}
