// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"time"
)

// Outcome classifies what a run did with one file.
type Outcome string

const (
	// OutcomeProcessed: prompt extracted, written, and fingerprint staged.
	OutcomeProcessed Outcome = "processed"
	// OutcomeSkipped: fingerprint unchanged since the last commit.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNoPrompt: markers absent or section empty; retried next run.
	OutcomeNoPrompt Outcome = "no_prompt"
	// OutcomeFailed: the file could not be read or its output written.
	OutcomeFailed Outcome = "failed"
)

// FileResult is the outcome for a single source file.
type FileResult struct {
	RelPath     string  `json:"rel_path" yaml:"rel_path"`
	Path        string  `json:"path" yaml:"path"`
	Outcome     Outcome `json:"outcome" yaml:"outcome"`
	Fingerprint string  `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Destination string  `json:"destination,omitempty" yaml:"destination,omitempty"`
	Preview     string  `json:"preview,omitempty" yaml:"preview,omitempty"`
	Err         string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r FileResult) message() string {
	name := r.RelPath
	if name == "" {
		name = r.Path
	}
	switch r.Outcome {
	case OutcomeProcessed:
		return fmt.Sprintf("extracted %s", name)
	case OutcomeSkipped:
		return fmt.Sprintf("skipped %s", name)
	case OutcomeNoPrompt:
		return fmt.Sprintf("no prompt %s (%s)", name, r.Err)
	default:
		return fmt.Sprintf("failed  %s: %s", name, r.Err)
	}
}

// Event is delivered to Options.Progress after each file.
type Event struct {
	Index    int
	Total    int
	Result   FileResult
	Message  string
	Fraction float64
	Err      error
}

// Summary holds counts and per-file results from one run.
type Summary struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	SourceRoot string       `json:"source_root" yaml:"source_root"`
	OutputRoot string       `json:"output_root" yaml:"output_root"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Processed  int          `json:"processed" yaml:"processed"`
	Skipped    int          `json:"skipped" yaml:"skipped"`
	NoPrompt   int          `json:"no_prompt" yaml:"no_prompt"`
	Errored    int          `json:"failed" yaml:"failed"`
	Committed  bool         `json:"committed" yaml:"committed"`
	Files      []FileResult `json:"files" yaml:"files"`
	Errors     []error      `json:"-" yaml:"-"`
}

// Total returns the number of files visited.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.NoPrompt + s.Errored
}

// Failed returns the number of files not extracted for any reason other
// than being unchanged: missing markers plus read/write failures.
func (s Summary) Failed() int {
	return s.NoPrompt + s.Errored
}

// HasErrors reports whether any file hit a read or write failure.
func (s Summary) HasErrors() bool {
	return s.Errored > 0
}

func (s *Summary) record(res FileResult, err error) {
	switch res.Outcome {
	case OutcomeProcessed:
		s.Processed++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeNoPrompt:
		s.NoPrompt++
	default:
		s.Errored++
	}
	s.Files = append(s.Files, res)
	if err != nil {
		s.Errors = append(s.Errors, err)
	}
}
