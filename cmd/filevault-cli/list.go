package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your files",
	Long:    `List the file identifiers you own, in upload order.`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context())
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
