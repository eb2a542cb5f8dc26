package main

import (
	"os"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity bound to your token",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	identity, err := client.Whoami(cmd.Context())
	if err != nil {
		return err
	}

	return getFormatter().FormatIdentity(os.Stdout, identity)
}
