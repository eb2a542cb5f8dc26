package main

import (
	"errors"
	"os"

	"github.com/sanketpal/filevault/clientcli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <file-identifier> [file-identifier...]",
	Aliases: []string{"rm"},
	Short:   "Delete files",
	Long: `Delete one or more files from the server.

Deletion continues past per-file errors; the exit status is non-zero
if any delete failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{
		FileIdentifiers: args,
	})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return errors.New("some deletes failed")
	}
	return nil
}
