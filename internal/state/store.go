// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"path/filepath"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

// Store is the in-memory view of persisted state for one run.
type Store struct {
	backend  Backend
	recorded types.PersistedState
	staged   map[string]string
}

// Open loads state from backend. Any read failure other than an absent
// store is a PersistenceError: prior state cannot be guessed safely.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	st, err := backend.Read(ctx)
	if err != nil {
		return nil, &types.PersistenceError{Op: "load", Err: err}
	}
	if st.ProcessedFiles == nil {
		st.ProcessedFiles = types.ProcessedFiles{}
	}
	return &Store{
		backend:  backend,
		recorded: st,
		staged:   make(map[string]string),
	}, nil
}

// Key normalizes path into the form used as a record key.
func Key(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// LastFingerprint returns the fingerprint recorded for path at the last
// commit. Staged entries are not visible until committed.
func (s *Store) LastFingerprint(path string) (string, bool) {
	fp, ok := s.recorded.ProcessedFiles[Key(path)]
	return fp, ok
}

// Stage records fp for path as pending. It is written on Commit.
func (s *Store) Stage(path, fp string) {
	s.staged[Key(path)] = fp
}

// Staged returns the number of pending entries.
func (s *Store) Staged() int {
	return len(s.staged)
}

// Discard drops all pending entries.
func (s *Store) Discard() {
	s.staged = make(map[string]string)
}

// Commit merges staged entries into the recorded mapping and writes the
// full state. Entries not touched this run are kept. On failure nothing is
// merged and the staged entries remain so Commit can be retried.
func (s *Store) Commit(ctx context.Context) error {
	next := s.recorded.Clone()
	for path, fp := range s.staged {
		next.ProcessedFiles[path] = fp
	}

	if err := s.backend.Write(ctx, next); err != nil {
		return &types.PersistenceError{Op: "commit", Err: err}
	}

	s.recorded = next
	s.staged = make(map[string]string)
	return nil
}

// Roots returns the configured roots.
func (s *Store) Roots() types.Roots {
	return s.recorded.Roots()
}

// SetRoots updates the configured roots in memory. Use SaveRoots or Commit
// to persist them.
func (s *Store) SetRoots(r types.Roots) {
	s.recorded.SetRoots(r)
}

// ResetRoots clears both configured roots in memory.
func (s *Store) ResetRoots() {
	s.recorded.SetRoots(types.Roots{})
}

// SaveRoots writes the recorded state, including root changes, without
// merging staged entries.
func (s *Store) SaveRoots(ctx context.Context) error {
	if err := s.backend.Write(ctx, s.recorded.Clone()); err != nil {
		return &types.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Snapshot returns a copy of the recorded state.
func (s *Store) Snapshot() types.PersistedState {
	return s.recorded.Clone()
}
