package recovery

import (
	"os"
	"path/filepath"

	"jio/internal/errkind"
	"jio/internal/jdir"
)

// Cleanup implements fsck_cleanup (§4.7): unlink every entry in the
// journal directory that is either the lock file or a valid
// transaction filename, then remove the directory itself. An absent
// directory is success, not an error — this is meant to be safe to
// call twice.
func Cleanup(dataPath, journalPath string) error {
	dir := journalPath
	if dir == "" {
		dir = jdir.DerivePath(dataPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errkind.Wrap(errkind.Storage, err)
	}

	for _, e := range entries {
		_, isTrans := jdir.ParseTransID(e.Name())
		if !jdir.IsLockName(e.Name()) && !isTrans {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return errkind.Wrap(errkind.Storage, err)
		}
	}

	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return errkind.Wrap(errkind.Storage, err)
	}
	return nil
}
