// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PersistedState is the on-disk record carried between runs. Field names
// follow the state file format: outputs_path is the markdown source root
// and prompts_path is where extracted prompts are written.
type PersistedState struct {
	OutputsPath    string         `json:"outputs_path" yaml:"outputs_path"`
	PromptsPath    string         `json:"prompts_path" yaml:"prompts_path"`
	ProcessedFiles ProcessedFiles `json:"processed_files" yaml:"processed_files"`
}

// NewPersistedState returns an empty state with an initialized mapping.
func NewPersistedState() PersistedState {
	return PersistedState{ProcessedFiles: ProcessedFiles{}}
}

// Roots returns the configured roots.
func (s PersistedState) Roots() Roots {
	return Roots{Source: s.OutputsPath, Output: s.PromptsPath}
}

// SetRoots replaces both configured roots.
func (s *PersistedState) SetRoots(r Roots) {
	s.OutputsPath = r.Source
	s.PromptsPath = r.Output
}

// Clone returns a deep copy of the state.
func (s PersistedState) Clone() PersistedState {
	out := s
	out.ProcessedFiles = make(ProcessedFiles, len(s.ProcessedFiles))
	for k, v := range s.ProcessedFiles {
		out.ProcessedFiles[k] = v
	}
	return out
}

// ProcessedFiles maps a normalized absolute source path to the hex
// fingerprint recorded after its last successful extraction.
type ProcessedFiles map[string]string

// UnmarshalJSON accepts both the mapping form and the legacy form, a plain
// array of paths. Legacy entries get an empty fingerprint so they are
// reprocessed on the next run.
func (p *ProcessedFiles) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*p = ProcessedFiles{}
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var paths []string
		if err := json.Unmarshal(trimmed, &paths); err != nil {
			return fmt.Errorf("decoding legacy processed_files list: %w", err)
		}
		out := make(ProcessedFiles, len(paths))
		for _, path := range paths {
			out[path] = ""
		}
		*p = out
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return fmt.Errorf("decoding processed_files: %w", err)
	}
	if m == nil {
		m = map[string]string{}
	}
	*p = m
	return nil
}
