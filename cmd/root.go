package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// Overridden at build time via -ldflags.
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"███████╗███████╗████████╗ ██████╗██╗  ██╗ █████╗ ██████╗ ██████╗ ",
		"██╔════╝██╔════╝╚══██╔══╝██╔════╝██║  ██║██╔══██╗██╔══██╗██╔══██╗",
		"█████╗  █████╗     ██║   ██║     ███████║███████║██████╔╝██████╔╝",
		"██╔══╝  ██╔══╝     ██║   ██║     ██╔══██║██╔══██║██╔══██╗██╔══██╗",
		"██║     ███████╗   ██║   ╚██████╗██║  ██║██║  ██║██║  ██║██║  ██║",
		"╚═╝     ╚══════╝   ╚═╝    ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	color.New(color.FgCyan, color.Bold).Print("ctl · Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "fetcharrctl",
	Short: "Administration tool for a fetcharr instance",
	Long: `
fetcharrctl manages the database behind a fetcharr instance: user accounts,
store migrations between SQLite, PostgreSQL and MySQL, resets, seeding and
exports.

The tool operates directly on the database files and connection URLs you
point it at. Stop the fetcharr service before running anything that writes.`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("fetcharrctl version %s\n", Version)
			return
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fetcharrctl.config.json)")

	rootCmd.Flags().BoolP("version", "v", false, "Show the CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("fetcharrctl.config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Warning: failed to read config file:", err)
		}
	}
}
