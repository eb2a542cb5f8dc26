package main

import (
	"os"

	"github.com/sanketpal/filevault/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	server      string
	token       string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "filevault-cli",
	Version: version,
	Short:   "Client for filevault servers",
	Long: `Filevault CLI - Client for filevault file storage servers

Typical workflow:
  filevault-cli configure add myserver   # save server endpoint as a profile
  filevault-cli register                 # create an account
  filevault-cli login                    # obtain a token (saved on the profile)
  filevault-cli upload ./report.pdf -i q3-report -m quarter=3
  filevault-cli list
  filevault-cli download q3-report
  filevault-cli metadata q3-report
  filevault-cli delete q3-report

Tokens expire; rerun 'login' when commands start failing with 401.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.filevault/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: FILEVAULT_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (default: http://localhost:5000, env: FILEVAULT_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (env: FILEVAULT_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path from flag, env, or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if envPath := clientcli.ConfigPathFromEnv(); envPath != "" {
		return envPath
	}
	return clientcli.DefaultConfigPath()
}

// getProfileName resolves the profile name from flag or env.
func getProfileName() string {
	if profileName != "" {
		return profileName
	}
	return clientcli.ProfileFromEnv()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	// 1. Load from the selected profile, if any
	configPath := getConfigPath()
	if configPath != "" {
		fileCfg, err := clientcli.LoadConfigFile(configPath)
		if err == nil {
			profile, profileErr := fileCfg.GetProfile(getProfileName())
			if profileErr == nil {
				configs = append(configs, clientcli.ConfigFromProfile(profile))
			}
		} else if cfgFile != "" {
			// Only error if user explicitly specified a config file
			return nil, err
		}
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{
		Endpoint: server,
		Token:    token,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}
