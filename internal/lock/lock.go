// Package lock serializes installs of the same SDK name across processes.
//
// Locks are advisory flock(2) locks (LockFileEx on Windows) on
// <dir>/<name>.lock. The lock file is left in place on release; only the
// kernel lock matters.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// RetryDelay is how often Acquire polls a held lock.
const RetryDelay = 100 * time.Millisecond

// ErrLocked is returned by TryAcquire when another holder has the lock.
var ErrLocked = errors.New("lock is held by another install")

// Lock is a held install lock.
type Lock struct {
	path string
	f    *flock.Flock
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire blocks until the lock for name is held or ctx is done.
func Acquire(ctx context.Context, dir, name string) (*Lock, error) {
	path, err := lockPath(dir, name)
	if err != nil {
		return nil, err
	}

	f := flock.New(path)
	locked, err := f.TryLockContext(ctx, RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire lock %s: %w", path, ErrLocked)
	}
	return &Lock{path: path, f: f}, nil
}

// TryAcquire takes the lock for name without waiting.
func TryAcquire(dir, name string) (*Lock, error) {
	path, err := lockPath(dir, name)
	if err != nil {
		return nil, err
	}

	f := flock.New(path)
	locked, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return &Lock{path: path, f: f}, nil
}

// Release releases the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Unlock()
	l.f = nil
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

func lockPath(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid lock name %q", name)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create lock directory: %w", err)
	}
	return filepath.Join(dir, name+".lock"), nil
}
