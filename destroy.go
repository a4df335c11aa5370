package kvbind

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrPathInUse is returned by engines when a path cannot be destroyed because a handle holds its lock.
var ErrPathInUse = errors.New("path is locked by an open handle")

// RemoveUnlocked removes dir and everything under it, unless the engine lock file
// lockName inside dir is currently held. A missing dir is not an error.
//
// The lock is held while removing, so an Open racing with the removal fails on the lock
// instead of opening a half deleted store.
func RemoveUnlocked(dir string, lockName string) error {
	stat, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	lockPath := filepath.Join(dir, lockName)
	if _, err = os.Stat(lockPath); err == nil {
		fl := flock.New(lockPath)
		locked, lerr := fl.TryLock()
		if lerr != nil {
			return fmt.Errorf("error probing lock file: %w", lerr)
		}
		if !locked {
			return fmt.Errorf("%w: %s", ErrPathInUse, dir)
		}
		defer func() {
			_ = fl.Unlock()
		}()
	}
	if err = os.RemoveAll(dir); err != nil {
		return fmt.Errorf("error removing store data: %w", err)
	}
	return nil
}
