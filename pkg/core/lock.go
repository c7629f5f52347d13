package core

import (
	"os"
	"path/filepath"

	"github.com/nightlyone/lockfile"

	"github.com/violetcereza/djtag-sync/pkg/core/status"
	"github.com/violetcereza/djtag-sync/pkg/errors"
	"github.com/violetcereza/djtag-sync/pkg/model"
)

// HistoryLock is an exclusive advisory lock on the history held in some folder
type HistoryLock struct {
	lf   lockfile.Lockfile
	path string
}

// LockHistory acquires the lock on the history held in dir, or fails immediately if
// another process holds it
func LockHistory(dir string) (*HistoryLock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.New("cannot create history folder").Wrap(err)
	}
	pth, err := filepath.Abs(filepath.Join(dir, model.GetLockFile()))
	if err != nil {
		return nil, err
	}
	lf, err := lockfile.New(pth)
	if err != nil {
		return nil, errors.New("failed to create lockfile object").Wrap(err)
	}
	if err := lf.TryLock(); err != nil {
		if errors.Is(err, lockfile.ErrBusy) {
			return nil, status.ErrHistoryLocked.WrapMessage("%s", pth)
		}
		return nil, errors.New("failed to acquire history lock").WrapMessage("%s: %v", pth, err)
	}
	return &HistoryLock{lf: lf, path: pth}, nil
}

// Path of the lock file
func (h *HistoryLock) Path() string {
	return h.path
}

// Unlock releases the lock
func (h *HistoryLock) Unlock() error {
	if h == nil {
		return nil
	}
	return h.lf.Unlock()
}
