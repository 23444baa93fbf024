package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "fsck <path>",
		Short: "Scan a data file's journal and re-apply incomplete transactions",
		Long: `The fsck command classifies every transaction file left in path's
journal directory, re-applies the ones that are whole, and reports a
tally per classification (invalid, in-progress, broken, corrupt,
apply-error, reapplied).

Example:
  jioctl fsck data.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFsck(args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}

func runFsck(path string) error {
	result, err := jio.Fsck(path, jio.FsckOptions{JournalPath: journalPath, Diagnostics: verbose})
	if err != nil {
		return fmt.Errorf("fsck: %w", err)
	}

	if jsonOut {
		return printJSON(result)
	}
	printInfo("total=%d invalid=%d in_progress=%d broken=%d corrupt=%d apply_error=%d reapplied=%d\n",
		result.Total, result.Invalid, result.InProgress, result.Broken, result.Corrupt, result.ApplyError, result.Reapplied)
	return nil
}
