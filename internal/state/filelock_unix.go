// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !windows

package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrLocked indicates another process holds the state lock.
var ErrLocked = errors.New("state is locked by another run")

// FileLock is an advisory flock(2) lock guarding a state file against a
// second concurrent run. The kernel releases it if the process dies.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock returns a lock backed by the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// LockPath returns the lock file path used for a state file.
func LockPath(statePath string) string {
	return statePath + ".lock"
}

// TryLock acquires the lock without blocking. It returns ErrLocked when the
// lock is held elsewhere.
func (l *FileLock) TryLock() error {
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLocked
		}
		return fmt.Errorf("flock failed: %w", err)
	}

	l.file = file
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}
	return nil
}

// IsLocked reports whether this instance holds the lock.
func (l *FileLock) IsLocked() bool {
	return l.file != nil
}
