package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

const (
	repoOwner = "fetcharr"
	repoName  = "fetcharr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and check for the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Version: %s\nCommit: %s\nBuild date: %s\n", Version, Commit, Date)

		client := &http.Client{
			Timeout: 10 * time.Second,
		}

		resp, err := client.Get(fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName))
		if err != nil {
			return fmt.Errorf("failed to fetch latest release: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			fmt.Printf("No release found for %s/%s\n", repoOwner, repoName)
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("release lookup returned status %d", resp.StatusCode)
		}

		var release struct {
			TagName string `json:"tag_name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
			return fmt.Errorf("failed to decode release response: %w", err)
		}

		fmt.Printf("Latest release: %s\n", release.TagName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
