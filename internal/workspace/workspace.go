// Package workspace opens the sipforge workspace: the SQLite store guarded
// by a file lock so concurrent invocations cannot corrupt grid state.
package workspace

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"sipforge/internal/config"
	"sipforge/internal/sipstore"
)

// ErrLocked is returned when another sipforge process holds the workspace.
var ErrLocked = errors.New("workspace is locked by another sipforge process")

// Workspace bundles the store with its exclusive lock.
type Workspace struct {
	Store *sipstore.Store

	lockPath string
	lock     *flock.Flock
}

// Open ensures the configured directories exist, takes the workspace lock,
// and opens the store. Callers must Close the workspace to release both.
func Open(cfg *config.Config) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.New("workspace requires configuration")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	lockPath := cfg.LockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, lockPath)
	}

	store, err := sipstore.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &Workspace{Store: store, lockPath: lockPath, lock: lock}, nil
}

// LockPath returns the path of the held lock file.
func (w *Workspace) LockPath() string {
	return w.lockPath
}

// Close closes the store and releases the lock.
func (w *Workspace) Close() error {
	if w == nil {
		return nil
	}
	storeErr := w.Store.Close()
	if err := w.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return storeErr
}
