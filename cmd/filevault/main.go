package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sanketpal/filevault/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "filevault",
	Short:   "Authenticated file storage server",
	Long: `Filevault is a small file storage server with token-based
authentication. Users register and log in to obtain a bearer token,
then upload, download, list, and delete their own files over a REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var configFiles []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			configFiles = append(configFiles, configFile)
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: FILEVAULT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: filevault.db, env: FILEVAULT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: FILEVAULT_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("secret-file", "", "path to token signing secret (env: FILEVAULT_AUTH_SECRET_FILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
