package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "jsync <path>",
		Short: "Open a data file in linger mode, run jsync on it, and close it",
		Long: `The jsync command opens path in linger mode, runs jsync on that
handle, then closes it. The linger registry is held in memory by each
open handle, so journal files left lingering by an earlier process are
not tracked by this handle and are not removed by this command.

Example:
  jioctl jsync data.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJsync(args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}

func runJsync(path string) error {
	fh, err := jio.Open(path, jio.Linger, jio.Options{JournalPath: journalPath, Diagnostics: verbose})
	if err != nil {
		return fmt.Errorf("jsync: %w", err)
	}
	defer fh.Close()

	if err := fh.Jsync(); err != nil {
		return fmt.Errorf("jsync: %w", err)
	}
	if jsonOut {
		return printJSON(map[string]interface{}{"path": path, "synced": true})
	}
	printInfo("synced %s\n", path)
	return nil
}
