package pacman

import (
	"context"
	"os"
	"time"
)

// DefaultLockPath is where pacman keeps its database lock.
const DefaultLockPath = "/var/lib/pacman/db.lck"

// LockFile probes the package database lock.
type LockFile struct {
	Path string
}

// NewLockFile returns a probe for path, or DefaultLockPath when path is empty.
func NewLockFile(path string) LockFile {
	if path == "" {
		path = DefaultLockPath
	}
	return LockFile{Path: path}
}

// Present reports whether the lock file exists.
func (l LockFile) Present() bool {
	_, err := os.Stat(l.Path)
	return err == nil
}

// WaitReleased polls until the lock disappears or ctx is done.
func (l LockFile) WaitReleased(ctx context.Context, poll time.Duration) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	t := time.NewTicker(poll)
	defer t.Stop()
	for l.Present() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
