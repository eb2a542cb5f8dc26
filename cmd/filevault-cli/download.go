package main

import (
	"io"
	"os"

	"github.com/sanketpal/filevault/clientcli"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <file-identifier>",
	Short: "Download a file",
	Long: `Download a file from the server.

By default the server-suggested filename is used. Pass -o to choose a
local path, or "-o -" to stream the content to stdout.

Examples:
  filevault-cli download q3-report
  filevault-cli download q3-report -o ./reports/q3.pdf
  filevault-cli download q3-report -o - | less`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var downloadOutput string

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "local path (default: server filename, '-' for stdout)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, content, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		FileIdentifier: args[0],
		LocalPath:      downloadOutput,
	})
	if err != nil {
		return err
	}

	if content != nil {
		_, copyErr := io.Copy(os.Stdout, content)
		_ = content.Close()
		if copyErr != nil {
			return copyErr
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
