package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldmark/framebot/internal/journal"
)

var (
	journalDBPath string
	journalClient string
	journalLimit  int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect journalled training records",
}

var journalRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print a client's most recent journal entries as JSON lines",
	RunE:  runJournalRecent,
}

var journalCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print how many entries a client has journalled",
	RunE:  runJournalCount,
}

func init() {
	for _, c := range []*cobra.Command{journalRecentCmd, journalCountCmd} {
		c.Flags().StringVar(&journalDBPath, "db", "framebot.db", "path to the journal database")
		c.Flags().StringVar(&journalClient, "client", "", "client UUID (required)")
		c.MarkFlagRequired("client")
	}
	journalRecentCmd.Flags().IntVar(&journalLimit, "limit", 20, "max entries to print")
	journalCmd.AddCommand(journalRecentCmd)
	journalCmd.AddCommand(journalCountCmd)
}

func openJournalStore() (*journal.Store, uuid.UUID, error) {
	clientID, err := uuid.Parse(journalClient)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid --client: %w", err)
	}
	store, err := journal.OpenStore(journalDBPath)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return store, clientID, nil
}

func runJournalRecent(cmd *cobra.Command, _ []string) error {
	store, clientID, err := openJournalStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(clientID, journalLimit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func runJournalCount(cmd *cobra.Command, _ []string) error {
	store, clientID, err := openJournalStore()
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.CountForClient(clientID)
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}
