package jio

import (
	"jio/internal/metrics"
	"jio/internal/recovery"
)

// Result tallies how fsck classified every transaction file it found
// (§6).
type Result = recovery.Result

// FsckOptions configures one Fsck run.
type FsckOptions struct {
	JournalPath string
	Diagnostics bool
	Metrics     *metrics.Collector
}

// Fsck scans dataPath's journal directory, classifies every
// transaction file, and re-applies the ones that are whole (§4.6).
// It does not require an open FileHandle — fsck is meant to run
// against a data file nothing else currently holds open.
func Fsck(dataPath string, opts FsckOptions) (Result, error) {
	return recovery.Fsck(dataPath, recovery.Options{
		JournalPath: opts.JournalPath,
		Diagnostics: opts.Diagnostics,
		Metrics:     opts.Metrics,
	})
}

// FsckCleanup removes every residual transaction file, the lock file,
// and the journal directory itself (§4.7). Idempotent: an already
// absent directory is success.
func FsckCleanup(dataPath, journalPath string) error {
	return recovery.Cleanup(dataPath, journalPath)
}
