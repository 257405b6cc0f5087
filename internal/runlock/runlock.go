// Package runlock guards a run ID against concurrent pipeline invocations
// with an advisory file lock.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"storyboard/internal/services"
)

// Lock is a held run lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking. A lock held by another
// process fails with ErrConfiguration.
func Acquire(path, runID string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "init", "lock run", "create lock directory", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "init", "lock run", "acquire "+path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "init", "lock run",
			fmt.Sprintf("run %s is already in progress in another process", runID), nil)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	_ = os.Remove(l.path)
	return nil
}
