package storage

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
)

// lockFileName is the sentinel file advisory-locked for the lifetime of an
// open store, preventing a second process from opening the same directory.
const lockFileName = "cask.lock"

// acquireLock takes an exclusive, non-blocking advisory lock on dir's
// cask.lock file. The returned flock.Flock must be released via Unlock when
// the store closes.
func acquireLock(dir string) (*flock.Flock, error) {
	path := filepath.Join(dir, lockFileName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to acquire database lock").
			WithPath(path)
	}
	if !locked {
		return nil, errors.NewLockHeldError(nil, path)
	}

	return fl, nil
}
