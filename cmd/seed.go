package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fetcharr/fetcharrctl/internal/database"
	"github.com/fetcharr/fetcharrctl/internal/seeder"
)

var seedCmd = &cobra.Command{
	Use:   "db:seed <destinationPath> <seedPath>",
	Short: "Populate a store from a SQL seed script",
	Long: `Execute every statement of the seed script inside one transaction.
The first failing statement rolls the whole seed back.

Example:
  fetcharrctl db:seed /config/fetcharr.db testdata/seed.sql`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		destinationPath, seedPath := args[0], args[1]

		db, dialect, err := database.Open(destinationPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		applied, err := seeder.New(db, dialect).Seed(cmd.Context(), seedPath)
		if err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		fmt.Printf("Applied %d seed statements\n", applied)

		color.Green("Database seeding completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
