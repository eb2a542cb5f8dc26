package main

import (
	"os"

	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <file-identifier>",
	Short: "Show a file's metadata",
	Long: `Show the stored metadata for a file: owner, filename, and any
extra fields attached at upload time.`,
	Args: cobra.ExactArgs(1),
	RunE: runMetadata,
}

func runMetadata(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	metadata, err := client.Metadata(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return getFormatter().FormatMetadata(os.Stdout, args[0], metadata)
}
