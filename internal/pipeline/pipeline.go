// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one incremental extraction pass over a source tree.
//
// Each markdown file is fingerprinted and compared with the fingerprint
// recorded at its last successful extraction. Unchanged files are skipped.
// Changed and new files have their prompt section extracted and written to
// the mirrored output path, and their new fingerprint is staged. The state
// is committed once, after every file has been visited.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pdiddy/prompt-extract/internal/extract"
	"github.com/pdiddy/prompt-extract/internal/fingerprint"
	"github.com/pdiddy/prompt-extract/internal/output"
	"github.com/pdiddy/prompt-extract/pkg/types"
)

// DefaultPreviewLength is the number of prompt characters shown per file.
const DefaultPreviewLength = 100

// Tracker is the processed-file state consulted and updated by a run.
// *state.Store implements it.
type Tracker interface {
	LastFingerprint(path string) (string, bool)
	Stage(path, fp string)
	Commit(ctx context.Context) error
}

// Options configures a run.
type Options struct {
	Fs      afero.Fs
	Tracker Tracker
	Writer  *output.Writer
	Markers types.Markers
	Roots   types.Roots

	// Progress, if set, is called after every file.
	Progress func(Event)
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
	// PreviewLength bounds the prompt preview in events; 0 uses the default.
	PreviewLength int
	// RunID tags the summary; a random UUID is used when empty.
	RunID string
}

// Run performs one pass over opts.Roots.Source. A ConfigurationError is
// returned before any file is touched if either root is unusable. Per-file
// read and write failures are reported in the summary and do not stop the
// run. If ctx is cancelled between files, Run returns without committing.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Writer == nil {
		opts.Writer = output.NewWriter(opts.Fs)
	}
	if opts.Markers == (types.Markers{}) {
		opts.Markers = extract.DefaultMarkers
	}
	if opts.PreviewLength == 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("run_id", opts.RunID)

	summary := Summary{
		RunID:      opts.RunID,
		SourceRoot: opts.Roots.Source,
		OutputRoot: opts.Roots.Output,
		StartedAt:  time.Now().UTC(),
	}

	if opts.Tracker == nil {
		return summary, errors.New("pipeline: no state tracker configured")
	}
	if err := ValidateRoots(opts.Fs, opts.Roots); err != nil {
		return summary, err
	}

	rels, walkErrs := Discover(opts.Fs, opts.Roots.Source, opts.Roots.Output, opts.Writer.Ext)
	for _, err := range walkErrs {
		summary.record(FileResult{Path: err.Path, Outcome: OutcomeFailed, Err: err.Error()}, err)
		logger.Warn("directory unreadable", "path", err.Path, "error", err.Err)
	}

	total := len(rels)
	logger.Info("starting extraction", "source", opts.Roots.Source, "output", opts.Roots.Output, "files", total)

	for i, rel := range rels {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = time.Now().UTC()
			logger.Warn("run cancelled before commit", "visited", i, "files", total)
			return summary, err
		}

		res, err := processFile(opts, rel)
		summary.record(res, err)

		if opts.Progress != nil {
			opts.Progress(Event{
				Index:    i,
				Total:    total,
				Result:   res,
				Message:  res.message(),
				Fraction: float64(i+1) / float64(total),
				Err:      err,
			})
		}
		if err != nil {
			logger.Warn("file failed", "path", rel, "error", err)
		} else {
			logger.Debug("file visited", "path", rel, "outcome", res.Outcome)
		}
	}

	if err := opts.Tracker.Commit(ctx); err != nil {
		summary.FinishedAt = time.Now().UTC()
		logger.Error("commit failed, progress from this run is not recorded", "error", err)
		return summary, err
	}
	summary.Committed = true
	summary.FinishedAt = time.Now().UTC()

	logger.Info("extraction complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"no_prompt", summary.NoPrompt,
		"failed", summary.Errored,
	)
	return summary, nil
}

// processFile classifies and, when needed, extracts one file. The returned
// error is non-nil only for read or write failures.
func processFile(opts Options, rel string) (FileResult, error) {
	path := filepath.Join(opts.Roots.Source, rel)
	res := FileResult{RelPath: rel, Path: path}

	fp, data, err := fingerprint.File(opts.Fs, path)
	if err != nil {
		ioErr := &types.IOError{Path: path, Op: "read", Err: unwrapPathError(err)}
		res.Outcome = OutcomeFailed
		res.Err = ioErr.Error()
		return res, ioErr
	}
	res.Fingerprint = fp

	if last, ok := opts.Tracker.LastFingerprint(path); ok && last == fp {
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	prompt, ok := extract.Prompt(string(data), opts.Markers)
	if !ok || prompt == "" {
		res.Outcome = OutcomeNoPrompt
		if ok {
			res.Err = "empty prompt section"
		} else {
			res.Err = types.ErrNoMarkers.Error()
		}
		return res, nil
	}

	dest, err := opts.Writer.Write(opts.Roots.Output, rel, prompt)
	if err != nil {
		ioErr := &types.IOError{Path: path, Op: "write", Err: err}
		res.Outcome = OutcomeFailed
		res.Err = ioErr.Error()
		return res, ioErr
	}

	opts.Tracker.Stage(path, fp)
	res.Outcome = OutcomeProcessed
	res.Destination = dest
	res.Preview = extract.Preview(prompt, opts.PreviewLength)
	return res, nil
}

// ValidateRoots checks that both roots are set and are existing directories.
func ValidateRoots(fs afero.Fs, roots types.Roots) error {
	if err := ValidateRoot(fs, "source root", roots.Source); err != nil {
		return err
	}
	return ValidateRoot(fs, "output root", roots.Output)
}

// ValidateRoot checks that path is set and is an existing directory. field
// names the root in the returned ConfigurationError.
func ValidateRoot(fs afero.Fs, field, path string) error {
	if path == "" {
		return &types.ConfigurationError{Field: field}
	}
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.ConfigurationError{Field: field, Path: path, Err: os.ErrNotExist}
		}
		return &types.ConfigurationError{Field: field, Path: path, Err: err}
	}
	if !info.IsDir() {
		return &types.ConfigurationError{Field: field, Path: path, Err: errors.New("not a directory")}
	}
	return nil
}

func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
