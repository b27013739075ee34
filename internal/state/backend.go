// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists which source documents have been extracted and the
// fingerprint each had at that time, together with the configured roots.
//
// A Store is loaded once per run, accumulates staged fingerprints in memory
// and writes the merged state back in a single Commit. Nothing reaches the
// backend before Commit, so an interrupted run never alters recorded state.
package state

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

// Backend reads and writes the complete persisted state. Read returns an
// empty state when nothing has been persisted yet.
type Backend interface {
	Read(ctx context.Context) (types.PersistedState, error)
	Write(ctx context.Context, st types.PersistedState) error
}

// NewBackend returns the backend for kind rooted at path. A database that
// cannot be opened is a PersistenceError.
func NewBackend(kind types.StateBackend, fs afero.Fs, path string) (Backend, error) {
	switch kind {
	case types.BackendJSON, "":
		return NewJSONFile(fs, path), nil
	case types.BackendSQLite:
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, &types.PersistenceError{Op: "load", Err: err}
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", kind)
	}
}
