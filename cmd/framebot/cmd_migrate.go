package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/fieldmark/framebot/internal/journal"
)

var migrateDBPath string

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Manage the journal database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE:      runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDBPath, "db", "framebot.db", "path to the journal database")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := sql.Open("sqlite", migrateDBPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", migrateDBPath, err)
	}
	defer db.Close()

	switch args[0] {
	case "up":
		if err := journal.MigrateUp(db); err != nil {
			return err
		}
		fmt.Println("migrated up")
	case "down":
		if err := journal.MigrateDown(db); err != nil {
			return err
		}
		fmt.Println("migrated down")
	case "version":
		version, dirty, err := journal.SchemaVersion(db)
		if err != nil {
			return err
		}
		fmt.Printf("schema version %d (dirty=%v)\n", version, dirty)
	}
	return nil
}
