package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

func printJSONTo(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withInstanceLock refuses a second concurrent jioctl invocation
// against the same data path (it fails at once rather than waiting),
// using a whole-file flock(2) on a ".<name>.jioctl.lock" file beside
// the data file. This is distinct from the
// library's own byte-range fcntl locking on the data file itself:
// this guards jioctl's CLI-level bookkeeping (e.g. a run in progress),
// not the data file's contents.
func withInstanceLock(dataPath string, fn func() error) error {
	lockPath := filepath.Join(filepath.Dir(dataPath), "."+filepath.Base(dataPath)+".jioctl.lock")
	lk := flock.New(lockPath)
	locked, err := lk.TryLock()
	if err != nil {
		return fmt.Errorf("jioctl: acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("jioctl: another jioctl invocation is already running against %s", dataPath)
	}
	defer func() {
		lk.Unlock()
		os.Remove(lockPath)
	}()
	return fn()
}
