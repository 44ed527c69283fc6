package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fetcharr/fetcharrctl/internal/config"
	"github.com/fetcharr/fetcharrctl/internal/database"
	"github.com/fetcharr/fetcharrctl/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "db:export",
	Short: "Export the configured store to JSON or CSV",
	Long: `Export every application table from the configured store.
Supported formats: json (default), csv.

Examples:
  fetcharrctl db:export
  fetcharrctl db:export --csv
  fetcharrctl db:export --json --out /tmp/backups`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		format := "json"
		if csv, _ := cmd.Flags().GetBool("csv"); csv {
			format = "csv"
		}

		target, err := cfg.StoreTarget()
		if err != nil {
			return err
		}

		db, dialect, err := database.Open(target)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		dir := cfg.ExportPath
		if exportOut != "" {
			dir = exportOut
		}

		path, err := export.New(db, dialect, dir).Run(cmd.Context(), format)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Export completed: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolP("json", "j", false, "Export as JSON (default)")
	exportCmd.Flags().BoolP("csv", "c", false, "Export as CSV")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Override the configured export directory")
}
