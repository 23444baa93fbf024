package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Open a data file, creating its journal directory if absent",
		Long: `The open command validates that a data file can be opened with a
journal directory attached, then closes it again. Useful for
pre-creating the journal layout before a batch run.

Example:
  jioctl open data.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}

func runOpen(path string) error {
	fh, err := jio.Open(path, 0, jio.Options{JournalPath: journalPath, Diagnostics: verbose})
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer fh.Close()

	if jsonOut {
		return printJSON(map[string]interface{}{"path": path, "opened": true})
	}
	printInfo("opened %s\n", path)
	return nil
}
