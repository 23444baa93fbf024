package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cleanup <path>",
		Short: "Remove a data file's journal directory entirely",
		Long: `The cleanup command removes every residual transaction file, the
lock file, and the journal directory itself. Idempotent: an already
absent journal directory is success. Only run this once you are sure
no transaction file still needs replaying — prefer fsck first.

Example:
  jioctl cleanup data.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}

func runCleanup(path string) error {
	if err := jio.FsckCleanup(path, journalPath); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	if jsonOut {
		return printJSON(map[string]interface{}{"path": path, "cleaned": true})
	}
	printInfo("removed journal for %s\n", path)
	return nil
}
