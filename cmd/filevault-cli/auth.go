package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/sanketpal/filevault/clientcli"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account on the server",
	Long: `Create an account on the configured server.

The username can be given as an argument or entered interactively.
The password is always prompted for and never echoed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and save the bearer token",
	Long: `Exchange credentials for a bearer token.

When a profile is in use, the token is saved on the profile so later
commands authenticate automatically. Otherwise the token is printed
for use with --token or FILEVAULT_TOKEN.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func runRegister(cmd *cobra.Command, args []string) error {
	username, password, err := promptCredentials(args)
	if err != nil || username == "" {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.Register(cmd.Context(), username, password); err != nil {
		if errors.Is(err, clientcli.ErrConflict) {
			return fmt.Errorf("username '%s' is already taken", username)
		}
		return err
	}

	return getFormatter().FormatMessage(os.Stdout, fmt.Sprintf("User '%s' registered.", username))
}

func runLogin(cmd *cobra.Command, args []string) error {
	username, password, err := promptCredentials(args)
	if err != nil || username == "" {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	tok, err := client.Login(cmd.Context(), username, password)
	if err != nil {
		if errors.Is(err, clientcli.ErrUnauthorized) {
			return errors.New("invalid username or password")
		}
		return err
	}

	if saveErr := saveToken(username, tok); saveErr != nil {
		// Token is still usable; tell the user instead of failing
		fmt.Printf("Warning: could not save token to profile: %v\n", saveErr)
		fmt.Printf("Token: %s\n", tok)
		return nil
	}

	return getFormatter().FormatMessage(os.Stdout, fmt.Sprintf("Logged in as '%s'.", username))
}

// promptCredentials resolves the username from args or a prompt and always
// prompts for the password. An empty username with nil error means the user
// cancelled.
func promptCredentials(args []string) (string, string, error) {
	username := ""
	if len(args) > 0 {
		username = args[0]
	}

	if username == "" {
		usernamePrompt := promptui.Prompt{
			Label: "Username",
			Validate: func(input string) error {
				if input == "" {
					return errors.New("username is required")
				}
				return nil
			},
		}
		var err error
		username, err = usernamePrompt.Run()
		if err != nil {
			return "", "", handlePromptError(err)
		}
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
		return "", "", handlePromptError(err)
	}

	return username, password, nil
}

// saveToken stores the token on the active profile.
func saveToken(username, tok string) error {
	configPath := getConfigPath()
	if configPath == "" {
		return errors.New("no config path available")
	}

	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		// No config file yet: create one with a default profile so the
		// token survives.
		cfg = &clientcli.ConfigFile{}
		endpoint := server
		if endpoint == "" {
			endpoint = clientcli.DefaultEndpoint
		}
		if err := cfg.AddProfile(clientcli.Profile{
			Name:     "default",
			Endpoint: endpoint,
			Default:  true,
		}); err != nil {
			return err
		}
	}

	profile, err := cfg.GetProfile(getProfileName())
	if err != nil {
		return err
	}

	if err := cfg.SetToken(profile.Name, username, tok); err != nil {
		return err
	}

	return cfg.Save(configPath)
}
