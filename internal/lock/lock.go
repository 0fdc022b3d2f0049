// Package lock provides the single-instance file lock corectl's daemon
// command acquires before starting the scheduler, so two daemons never
// supervise the same database concurrently. Grounded on the teacher's
// sync.go use of gofrs/flock for its own exclusive sync lock.
package lock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock wraps a single exclusive file lock.
type Lock struct {
	f *flock.Flock
}

// Acquire attempts to take an exclusive, non-blocking lock at path.
// Returns an error naming the path when another process already holds
// it.
func Acquire(path string) (*Lock, error) {
	f := flock.New(path)
	locked, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire lock %s: already held by another process", path)
	}
	return &Lock{f: f}, nil
}

// Release unlocks and closes the underlying file handle.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Unlock()
}
