package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jio"
	"jio/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Replay a batch of transactions described by a YAML script",
		Long: `The run command loads a YAML script naming a data file, its library
flags, and an ordered list of transactions, and replays them in
sequence. A transaction with rollbackAfter: true is rolled back
immediately after it commits, which is useful for scripted rollback
demonstrations.

Example:
  jioctl run script.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}

func runRun(scriptPath string) error {
	script, err := config.Load(scriptPath)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return withInstanceLock(script.DataPath, func() error {
		flags := jio.OpenFlags(0)
		if script.Flags.NoLock {
			flags |= jio.NoLock
		}
		if script.Flags.NoRollback {
			flags |= jio.NoRollback
		}
		if script.Flags.Linger {
			flags |= jio.Linger
		}
		if script.Flags.ReadOnly {
			flags |= jio.ReadOnly
		}

		jp := script.JournalPath
		if journalPath != "" {
			jp = journalPath
		}

		fh, err := jio.Open(script.DataPath, flags, jio.Options{
			JournalPath: jp,
			Diagnostics: script.Diagnostics || verbose,
		})
		if err != nil {
			return fmt.Errorf("run: open %s: %w", script.DataPath, err)
		}
		defer fh.Close()

		committed := 0
		rolledBack := 0
		for i, tc := range script.Transactions {
			txn := fh.NewTransaction()
			for _, op := range tc.Operations {
				payload, err := op.Bytes()
				if err != nil {
					return fmt.Errorf("run: transaction %d: %w", i, err)
				}
				if err := txn.Add(payload, op.Offset); err != nil {
					return fmt.Errorf("run: transaction %d: add: %w", i, err)
				}
			}
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("run: transaction %d: commit: %w", i, err)
			}
			committed++

			if tc.RollbackAfter {
				if err := txn.Rollback(); err != nil {
					return fmt.Errorf("run: transaction %d: rollback: %w", i, err)
				}
				rolledBack++
			}
		}

		if err := fh.Jsync(); err != nil {
			return fmt.Errorf("run: jsync: %w", err)
		}

		if jsonOut {
			return printJSON(map[string]interface{}{
				"dataPath":   script.DataPath,
				"committed":  committed,
				"rolledBack": rolledBack,
			})
		}
		printInfo("replayed %s: %d committed, %d rolled back\n", script.DataPath, committed, rolledBack)
		return nil
	})
}
