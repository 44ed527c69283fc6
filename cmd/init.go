package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fetcharr/fetcharrctl/internal/config"
)

const configFileName = "fetcharrctl.config.json"

var (
	sqliteFlag     bool
	postgresqlFlag bool
	mysqlFlag      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default fetcharrctl.config.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := "sqlite"
		flagCount := 0

		if sqliteFlag {
			provider = "sqlite"
			flagCount++
		}
		if postgresqlFlag {
			provider = "postgresql"
			flagCount++
		}
		if mysqlFlag {
			provider = "mysql"
			flagCount++
		}

		if flagCount > 1 {
			return fmt.Errorf("please specify only one database type (--sqlite, --postgresql, or --mysql)")
		}

		if _, err := os.Stat(configFileName); err == nil {
			return fmt.Errorf("%s already exists", configFileName)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to build default config: %w", err)
		}
		cfg.Database.Provider = provider

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		if err := os.WriteFile(configFileName, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("✅ Created %s for %s\n", configFileName, provider)
		if provider != "sqlite" && provider != "sqlite3" {
			fmt.Printf("   Set %s in the environment or .env before running commands\n", cfg.Database.URLEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&sqliteFlag, "sqlite", false, "Configure for a SQLite store")
	initCmd.Flags().BoolVar(&postgresqlFlag, "postgresql", false, "Configure for a PostgreSQL store")
	initCmd.Flags().BoolVar(&mysqlFlag, "mysql", false, "Configure for a MySQL store")
}
