// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

// JSONFile stores state as a single JSON document:
//
//	{"outputs_path": "...", "prompts_path": "...", "processed_files": {"/abs/a.md": "<hex>"}}
//
// A processed_files array of paths is accepted on read and upgraded to the
// mapping form with empty fingerprints.
type JSONFile struct {
	fs   afero.Fs
	path string
}

// NewJSONFile returns a JSON backend for path on fs.
func NewJSONFile(fs afero.Fs, path string) *JSONFile {
	return &JSONFile{fs: fs, path: path}
}

// Path returns the location of the state file.
func (j *JSONFile) Path() string {
	return j.path
}

// Read loads the state file. A missing file is a first run and yields an
// empty state.
func (j *JSONFile) Read(ctx context.Context) (types.PersistedState, error) {
	if err := ctx.Err(); err != nil {
		return types.PersistedState{}, err
	}

	data, err := afero.ReadFile(j.fs, j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewPersistedState(), nil
		}
		return types.PersistedState{}, fmt.Errorf("reading %s: %w", j.path, err)
	}

	st := types.NewPersistedState()
	if err := json.Unmarshal(data, &st); err != nil {
		return types.PersistedState{}, fmt.Errorf("parsing %s: %w", j.path, err)
	}
	if st.ProcessedFiles == nil {
		st.ProcessedFiles = types.ProcessedFiles{}
	}
	return st, nil
}

// Write replaces the state file. The document goes to a temporary file in
// the same directory first and is renamed over the target.
func (j *JSONFile) Write(ctx context.Context, st types.PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st.ProcessedFiles == nil {
		st.ProcessedFiles = types.ProcessedFiles{}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := j.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := j.path + ".tmp"
	if err := afero.WriteFile(j.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := j.fs.Rename(tmp, j.path); err != nil {
		_ = j.fs.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", j.path, err)
	}
	return nil
}
