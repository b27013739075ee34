// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrNoMarkers reports that a document does not (yet) contain both markers.
// It is an expected outcome, not a failure of the run.
var ErrNoMarkers = errors.New("prompt markers not found")

// ConfigurationError reports a missing or invalid configured root. It is
// fatal to a run and is raised before any file is touched.
type ConfigurationError struct {
	Field string
	Path  string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration: %s is not set", e.Field)
	}
	return fmt.Sprintf("configuration: %s %s: %v", e.Field, e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IOError reports that a single file could not be read or written. The run
// continues with the remaining files.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// PersistenceError reports that processed-file state could not be loaded or
// committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("state %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
