package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sanketpal/filevault/clientcli"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload a file",
	Long: `Upload a local file to the server.

The file identifier defaults to the file's base name without extension.
Extra metadata fields can be attached with repeated -m key=value flags
and are returned by the 'metadata' command later.

Examples:
  # Upload with derived identifier
  filevault-cli upload ./report.pdf

  # Upload with explicit identifier and metadata
  filevault-cli upload ./report.pdf -i q3-report -m quarter=3 -m year=2026`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var (
	uploadIdentifier string
	uploadMetadata   []string
)

func init() {
	uploadCmd.Flags().StringVarP(&uploadIdentifier, "identifier", "i", "", "file identifier (default: base name without extension)")
	uploadCmd.Flags().StringArrayVarP(&uploadMetadata, "metadata", "m", nil, "extra metadata field as key=value (repeatable)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	metadata, err := parseMetadataFlags(uploadMetadata)
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:      args[0],
		FileIdentifier: uploadIdentifier,
		Metadata:       metadata,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}

// parseMetadataFlags converts repeated key=value flags into a map.
func parseMetadataFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata flag %q (expected key=value)", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
