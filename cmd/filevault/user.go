package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sanketpal/filevault"
	"github.com/sanketpal/filevault/config"
	"github.com/sanketpal/filevault/database"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user account",
	Long: `Create a user account directly, without going through the HTTP API.

The password is prompted for interactively and never echoed. Useful for
bootstrapping the first account on a fresh deployment.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

func init() {
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	confirmPrompt := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
	}
	confirm, err := confirmPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	if password != confirm {
		return errors.New("passwords do not match")
	}

	repos, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	// Tokens are not needed for direct account creation; a nil-token auth
	// service can still register.
	auth := filevault.NewAuthService(repos.Users, nil)

	if err := auth.Register(ctx, username, password); err != nil {
		if errors.Is(err, filevault.ErrConflict) {
			return fmt.Errorf("user %s already exists", username)
		}
		return fmt.Errorf("register: %w", err)
	}

	fmt.Printf("User '%s' created.\n", username)
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
