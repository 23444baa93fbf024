// Command jioctl is a command-line front end for the jio journaling
// library: open a data file and run a transaction from the shell,
// fsck a journal directory left behind by a crash, or replay a batch
// script of transactions against a file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose     bool
	jsonOut     bool
	journalPath string
)

var rootCmd = &cobra.Command{
	Use:     "jioctl",
	Short:   "Inspect and drive jio-journaled data files",
	Long:    `jioctl opens, commits, fscks, and cleans up files managed by the jio journaling library.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable diagnostic logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal-path", "", "override the derived journal directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

func printJSON(v interface{}) error {
	return printJSONTo(os.Stdout, v)
}
