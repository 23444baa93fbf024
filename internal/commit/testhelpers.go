package commit

// CrashAfterJournalFsync and CrashAfterDataApply let other packages'
// tests (recovery's, chiefly) reproduce a crashed commit without an
// exported field on Transaction: set the unexported checkpoint, run
// the real Commit, and return once ErrSimulatedCrash surfaces. Not
// meant for production callers — there is no way to reach these from
// the public jio API.

// CrashAfterJournalFsync commits txn but stops right after the
// journal record and journal directory are fsynced, before any bytes
// are applied to the data file.
func CrashAfterJournalFsync(txn *Transaction) error {
	txn.crashAfter = "journal-fsync"
	return txn.Commit()
}

// CrashAfterDataApply commits txn but stops right after the data file
// is written and fsynced, before the journal file would be unlinked.
func CrashAfterDataApply(txn *Transaction) error {
	txn.crashAfter = "data-apply"
	return txn.Commit()
}
