package utils

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

// MirrorLock keeps a second mirror sync from writing the same database.
type MirrorLock struct {
	fl *flock.Flock
}

// MirrorPath resolves the configured mirror location. An empty value selects
// ~/.config/estform/records.sqlite and a leading ~ is expanded.
func MirrorPath(configured string) (string, error) {
	if configured == "" {
		configured = filepath.Join("~", ".config", "estform", "records.sqlite")
	}
	expanded, err := homedir.Expand(configured)
	if err != nil {
		return "", fmt.Errorf("expanding mirror path %q: %w", configured, err)
	}
	return filepath.Abs(expanded)
}

// LockMirror takes the lock file next to the mirror at path. If another
// process holds it, LockMirror warns once and polls every retry until the
// lock is free or ctx is done.
func LockMirror(ctx context.Context, path string, retry time.Duration) (*MirrorLock, error) {
	l := &MirrorLock{fl: flock.New(path + ".lock")}
	locked, err := l.fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", l.Path(), err)
	}
	if locked {
		return l, nil
	}

	Log.Warnf("Another estform process is syncing %s, waiting for it to finish...", path)
	if _, err := l.fl.TryLockContext(ctx, retry); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", l.Path(), err)
	}
	return l, nil
}

// Path returns the lock file location.
func (l *MirrorLock) Path() string { return l.fl.Path() }

func (l *MirrorLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlocking %s: %w", l.Path(), err)
	}
	return nil
}
