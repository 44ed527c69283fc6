package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fetcharr/fetcharrctl/internal/catalog"
	"github.com/fetcharr/fetcharrctl/internal/database"
	"github.com/fetcharr/fetcharrctl/internal/seeder"
)

var resetCmd = &cobra.Command{
	Use:   "db:reset <destinationPath> <seedPath>",
	Short: "Clear every application table and reseed from a script",
	Long: `Delete all rows from every application table, rewind auto-increment
counters, then replay the seed script. The clear runs in one transaction
and the seed in another; a failing seed leaves the store empty but intact.

Example:
  fetcharrctl db:reset /config/fetcharr.db testdata/seed.sql`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		destinationPath, seedPath := args[0], args[1]

		db, dialect, err := database.Open(destinationPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		s := seeder.New(db, dialect)

		tables := catalog.ResetTables()
		deleted, err := s.Reset(cmd.Context(), tables)
		if err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Printf("Cleared %d rows across %d tables\n", deleted, len(tables))

		applied, err := s.Seed(cmd.Context(), seedPath)
		if err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		fmt.Printf("Applied %d seed statements\n", applied)

		color.Green("Database reset completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
