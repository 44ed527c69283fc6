package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fetcharr/fetcharrctl/internal/auth"
	"github.com/fetcharr/fetcharrctl/internal/config"
	"github.com/fetcharr/fetcharrctl/internal/database"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user <username>",
	Short: "Create a new application user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		store, cleanup, err := openUserStore()
		if err != nil {
			return err
		}
		defer cleanup()

		existing, err := store.FindByUsername(cmd.Context(), username)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("user %s already exists", username)
		}

		hashed, err := promptHashedPassword()
		if err != nil {
			return err
		}

		if err := store.Store(cmd.Context(), username, hashed); err != nil {
			return err
		}

		color.Green("User %s created", username)
		return nil
	},
}

var changePasswordCmd = &cobra.Command{
	Use:   "change-password <username>",
	Short: "Change an application user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		store, cleanup, err := openUserStore()
		if err != nil {
			return err
		}
		defer cleanup()

		user, err := store.FindByUsername(cmd.Context(), username)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user %s not found", username)
		}

		hashed, err := promptHashedPassword()
		if err != nil {
			return err
		}

		if err := store.UpdatePassword(cmd.Context(), username, hashed); err != nil {
			return err
		}

		color.Green("Password for %s updated", username)
		return nil
	},
}

// openUserStore connects to the configured store. The caller must invoke
// cleanup once done.
func openUserStore() (*auth.UserStore, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	target, err := cfg.StoreTarget()
	if err != nil {
		return nil, nil, err
	}

	db, dialect, err := database.Open(target)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	return auth.NewUserStore(db, dialect), func() { db.Close() }, nil
}

func promptHashedPassword() (string, error) {
	password, err := readPassword()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	hashed, err := auth.CreateHash(string(password), auth.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hashed, nil
}

// readPassword reads without echo from a terminal, or a single line when
// stdin is piped.
func readPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())

	if term.IsTerminal(fd) {
		fmt.Print("Password: ")
		password, err := term.ReadPassword(fd)
		if err != nil {
			return nil, err
		}
		fmt.Println()
		if len(password) == 0 {
			return nil, errors.New("zero length password")
		}
		return password, nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("stdin is empty")
	}
	password := scanner.Bytes()
	if len(password) == 0 {
		return nil, errors.New("zero length password")
	}
	return password, nil
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(changePasswordCmd)
}
