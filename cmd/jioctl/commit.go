package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jio"
)

var (
	commitOffset  int64
	commitPayload string
)

func init() {
	cmd := &cobra.Command{
		Use:   "commit <path>",
		Short: "Commit a single (offset, payload) write as one transaction",
		Long: `The commit command opens path, adds one write operation, and commits
it as a single transaction.

Example:
  jioctl commit data.bin --offset 0 --payload "hello"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(args[0])
		},
	}
	cmd.Flags().Int64Var(&commitOffset, "offset", 0, "byte offset of the write")
	cmd.Flags().StringVar(&commitPayload, "payload", "", "payload bytes, taken as a UTF-8 string")
	rootCmd.AddCommand(cmd)
}

func runCommit(path string) error {
	return withInstanceLock(path, func() error {
		fh, err := jio.Open(path, 0, jio.Options{JournalPath: journalPath, Diagnostics: verbose})
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		defer fh.Close()

		txn := fh.NewTransaction()
		if err := txn.Add([]byte(commitPayload), commitOffset); err != nil {
			return fmt.Errorf("commit: add: %w", err)
		}
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		if jsonOut {
			return printJSON(map[string]interface{}{"path": path, "id": txn.ID(), "offset": commitOffset, "length": len(commitPayload)})
		}
		printInfo("committed transaction %d (%d bytes at offset %d)\n", txn.ID(), len(commitPayload), commitOffset)
		return nil
	})
}
