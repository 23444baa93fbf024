// Package jio retrofits transactional, crash-consistent write
// semantics onto arbitrary regular files. Open a data file through
// Open, group one or more writes into a Transaction, and Commit it:
// each committed transaction is atomic with respect to crash and
// concurrent access, and after a crash Fsck reconstructs consistent
// state from whatever journal records survived.
//
// The package is a thin façade: FileHandle and Transaction hold the
// public-facing state, and every protocol step — locking, journal
// codec, commit, recovery — is delegated to the internal/* packages.
package jio
