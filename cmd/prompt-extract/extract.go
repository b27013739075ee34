// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/prompt-extract/internal/output"
	"github.com/pdiddy/prompt-extract/internal/pipeline"
	"github.com/pdiddy/prompt-extract/internal/state"
	"github.com/pdiddy/prompt-extract/pkg/types"
)

func newExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract prompts from changed markdown notes",
		Long: `Extract walks the source root for .md files, skips notes whose content is
unchanged since they were last extracted, and writes the "# Prompt" section
of every other note to the mirrored path under the output root
(sub/note.md -> sub/note_prompt.md).

Notes without both markers are reported and retried on the next run. State
is saved once, after all notes have been visited; an interrupted run
records nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, a)
		},
	}

	cmd.Flags().String("source", "", "markdown source root (overrides the stored path)")
	cmd.Flags().String("output", "", "prompt output root (overrides the stored path)")
	cmd.Flags().Bool("remember", false, "store --source/--output as the default roots")
	cmd.Flags().String("start-marker", "", `start marker (default "# Prompt")`)
	cmd.Flags().String("end-marker", "", `end marker (default "# Output")`)
	cmd.Flags().Int("preview-length", 0, "characters of each prompt shown in the log (default 100)")
	cmd.Flags().String("report", "", "write a YAML run report to this file")
	cmd.Flags().Bool("no-lock", false, "do not take the advisory lock on the state file")
	return cmd
}

func runExtract(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	s := a.settings

	noLock, _ := cmd.Flags().GetBool("no-lock")
	if s.State.Lock && !noLock {
		lock := state.NewFileLock(state.LockPath(s.State.Path))
		if err := lock.TryLock(); err != nil {
			if errors.Is(err, state.ErrLocked) {
				return fmt.Errorf("%w (%s)", err, state.LockPath(s.State.Path))
			}
			return err
		}
		defer lock.Unlock()
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	roots := store.Roots()
	if s.Source != "" {
		roots.Source = absPath(s.Source)
	}
	if s.Output != "" {
		roots.Output = absPath(s.Output)
	}
	if remember, _ := cmd.Flags().GetBool("remember"); remember {
		store.SetRoots(roots)
	}

	fmt.Fprintf(a.out, "Extracting prompts from %s into %s\n", roots.Source, roots.Output)

	summary, runErr := pipeline.Run(ctx, pipeline.Options{
		Fs:            a.fs,
		Tracker:       store,
		Writer:        output.NewWriter(a.fs),
		Markers:       s.Markers,
		Roots:         roots,
		Progress:      progressPrinter(a),
		Logger:        a.logger,
		PreviewLength: s.PreviewLength,
	})

	var cfgErr *types.ConfigurationError
	if errors.As(runErr, &cfgErr) {
		return fmt.Errorf("%w; set both roots with \"paths set\" or --source/--output", runErr)
	}

	fmt.Fprintf(a.out, "\nextracted: %d, skipped: %d, no prompt: %d, failed: %d\n",
		summary.Processed, summary.Skipped, summary.NoPrompt, summary.Errored)

	if report, _ := cmd.Flags().GetString("report"); report != "" {
		if err := writeReport(a.fs, report, summary); err != nil {
			a.logger.Warn("run report write failed", "path", report, "error", err)
			fmt.Fprintf(a.errOut, "warning: report write failed: %v\n", err)
		}
	}

	if runErr != nil {
		if !summary.Committed {
			fmt.Fprintln(a.errOut, "state was NOT saved; this run's progress will be repeated next time")
		}
		return runErr
	}
	if summary.HasErrors() {
		return fmt.Errorf("%d file(s) failed extraction", summary.Errored)
	}
	return nil
}

// progressPrinter prints one status line per file, with a prompt preview
// for extracted files.
func progressPrinter(a *app) func(pipeline.Event) {
	return func(ev pipeline.Event) {
		fmt.Fprintf(a.out, "[%d/%d] %s\n", ev.Index+1, ev.Total, ev.Message)
		if ev.Result.Outcome == pipeline.OutcomeProcessed && ev.Result.Preview != "" {
			fmt.Fprintf(a.out, "        preview: %s\n", ev.Result.Preview)
		}
	}
}

// writeReport marshals the run summary to a YAML file.
func writeReport(fs afero.Fs, path string, summary pipeline.Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
