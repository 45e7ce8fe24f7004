//go:build windows

// Package lockfile serializes mutating commands (renumber, archive,
// next --reserve) so two phx processes never rewrite the same tree at
// once. Validation never takes the lock.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const lockFile = "registry.lock"

// Lock represents an exclusive lock on the phx state directory.
// Note: Windows locking is a PID-file check, not a true flock.
type Lock struct {
	path string
	file *os.File
}

// Acquire attempts to take the lock. On Windows this is a best-effort
// PID file rather than an atomic flock.
func Acquire(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	path := filepath.Join(stateDir, lockFile)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}

	l.file.Close()
	os.Remove(l.path)
}
