// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build windows

package state

import "errors"

// ErrLocked indicates another process holds the state lock.
var ErrLocked = errors.New("state is locked by another run")

// FileLock is a no-op on Windows; concurrent runs are not guarded there.
type FileLock struct {
	path   string
	locked bool
}

// NewFileLock returns a lock backed by the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// LockPath returns the lock file path used for a state file.
func LockPath(statePath string) string {
	return statePath + ".lock"
}

func (l *FileLock) TryLock() error {
	l.locked = true
	return nil
}

func (l *FileLock) Unlock() error {
	l.locked = false
	return nil
}

// IsLocked reports whether this instance holds the lock.
func (l *FileLock) IsLocked() bool {
	return l.locked
}
