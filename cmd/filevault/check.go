package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sanketpal/filevault/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check metadata and storage consistency",
	Long: `Compare the metadata database against the storage directory.

Reports two kinds of divergence:
  - missing blobs: a metadata record exists but the file bytes are gone
  - orphaned blobs: file bytes exist with no metadata record

The check never modifies anything; it only reports. Divergence can
appear after a crash between the two halves of an upload or delete.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	service, _, cleanup, err := buildFileService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := service.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	for _, id := range report.MissingBlobs {
		slog.Warn("record without blob", "file_identifier", id)
	}
	for _, name := range report.OrphanedBlobs {
		slog.Warn("blob without record", "filename", name)
	}

	if len(report.MissingBlobs) == 0 && len(report.OrphanedBlobs) == 0 {
		slog.Info("storage is consistent")
		return nil
	}

	slog.Info("check complete",
		"missing_blobs", len(report.MissingBlobs),
		"orphaned_blobs", len(report.OrphanedBlobs))
	return nil
}
