// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/prompt-extract/internal/fingerprint"
	"github.com/pdiddy/prompt-extract/internal/output"
	"github.com/pdiddy/prompt-extract/internal/state"
	"github.com/pdiddy/prompt-extract/pkg/types"
)

const (
	srcRoot = "/notes"
	outRoot = "/prompts"
)

var testRoots = types.Roots{Source: srcRoot, Output: outRoot}

// --- test helpers ---

func note(prompt string) string {
	return "# Prompt\n\n" + prompt + "\n\n# Output\nsome answer\n"
}

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(srcRoot, 0o755))
	require.NoError(t, fs.MkdirAll(outRoot, 0o755))
	for rel, content := range files {
		writeSource(t, fs, rel, content)
	}
	return fs
}

func writeSource(t *testing.T, fs afero.Fs, rel, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, srcRoot+"/"+rel, []byte(content), 0o644))
}

func readOutput(t *testing.T, fs afero.Fs, rel string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, outRoot+"/"+rel)
	require.NoError(t, err)
	return string(data)
}

func openStore(t *testing.T, backend state.Backend) *state.Store {
	t.Helper()
	s, err := state.Open(context.Background(), backend)
	require.NoError(t, err)
	return s
}

func runOnce(t *testing.T, fs afero.Fs, backend state.Backend) Summary {
	t.Helper()
	summary, err := Run(context.Background(), Options{
		Fs:      fs,
		Tracker: openStore(t, backend),
		Roots:   testRoots,
	})
	require.NoError(t, err)
	return summary
}

// failingFs fails Open for one path and delegates everything else.
type failingFs struct {
	afero.Fs
	path string
}

func (f failingFs) Open(name string) (afero.File, error) {
	if name == f.path {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

// --- Run ---

func TestRunExtractsAndMirrorsPaths(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.md":         note("Hello"),
		"sub/dir/b.md": note("Deep"),
		"readme.txt":   note("ignored"),
	})
	mem := state.NewMemory(types.NewPersistedState())

	summary := runOnce(t, fs, mem)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed())
	assert.True(t, summary.Committed)
	assert.NotEmpty(t, summary.RunID)

	assert.Equal(t, "# Prompt\n\nHello\n", readOutput(t, fs, "a_prompt.md"))
	assert.Equal(t, "# Prompt\n\nDeep\n", readOutput(t, fs, "sub/dir/b_prompt.md"))

	assert.Equal(t, fingerprint.Of([]byte(note("Hello"))), mem.State.ProcessedFiles["/notes/a.md"])
	assert.Equal(t, fingerprint.Of([]byte(note("Deep"))), mem.State.ProcessedFiles["/notes/sub/dir/b.md"])
	assert.Len(t, mem.State.ProcessedFiles, 2)
	assert.Equal(t, 1, mem.Writes, "state is written exactly once per run")
}

func TestRunIsIdempotent(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.md":     note("A"),
		"sub/b.md": note("B"),
	})
	mem := state.NewMemory(types.NewPersistedState())

	first := runOnce(t, fs, mem)
	require.Equal(t, 2, first.Processed)
	before := readOutput(t, fs, "sub/b_prompt.md")

	second := runOnce(t, fs, mem)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, before, readOutput(t, fs, "sub/b_prompt.md"))
}

func TestRunReprocessesOnlyChangedFile(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.md": note("A"),
		"b.md": note("B"),
		"c.md": note("C"),
	})
	mem := state.NewMemory(types.NewPersistedState())
	runOnce(t, fs, mem)

	writeSource(t, fs, "b.md", note("b"))

	summary := runOnce(t, fs, mem)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, "# Prompt\n\nb\n", readOutput(t, fs, "b_prompt.md"))

	for _, f := range summary.Files {
		if f.RelPath == "b.md" {
			assert.Equal(t, OutcomeProcessed, f.Outcome)
		} else {
			assert.Equal(t, OutcomeSkipped, f.Outcome)
		}
	}
}

func TestRunNeverRecordsFileWithoutMarkers(t *testing.T) {
	fs := newFs(t, map[string]string{
		"draft.md": "# Prompt\n\nHello\n",
	})
	mem := state.NewMemory(types.NewPersistedState())

	for i := 0; i < 3; i++ {
		summary := runOnce(t, fs, mem)
		assert.Equal(t, 1, summary.NoPrompt)
		assert.Equal(t, 1, summary.Failed())
		assert.False(t, summary.HasErrors())
		_, recorded := mem.State.ProcessedFiles["/notes/draft.md"]
		assert.False(t, recorded, "run %d recorded a file without markers", i)
	}
	exists, err := afero.Exists(fs, outRoot+"/draft_prompt.md")
	require.NoError(t, err)
	assert.False(t, exists)

	writeSource(t, fs, "draft.md", note("Hello"))
	summary := runOnce(t, fs, mem)
	assert.Equal(t, 1, summary.Processed)
	assert.Contains(t, mem.State.ProcessedFiles, "/notes/draft.md")
}

func TestRunEmptyPromptIsNotRecorded(t *testing.T) {
	fs := newFs(t, map[string]string{
		"empty.md":    "# Prompt\n\n   \n# Output\nx",
		"reversed.md": "# Output\nx\n# Prompt\ny",
	})
	mem := state.NewMemory(types.NewPersistedState())

	summary := runOnce(t, fs, mem)
	assert.Equal(t, 2, summary.NoPrompt)
	assert.Empty(t, mem.State.ProcessedFiles)
}

func TestRunUpgradesLegacyState(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.md":     note("A"),
		"b.md":     note("B"),
		"sub/c.md": note("C"),
	})
	legacy := `{"outputs_path": "/notes", "prompts_path": "/prompts",
		"processed_files": ["/notes/a.md", "/notes/b.md", "/notes/sub/c.md"]}`
	require.NoError(t, afero.WriteFile(fs, "/config.json", []byte(legacy), 0o644))
	backend := state.NewJSONFile(fs, "/config.json")

	store := openStore(t, backend)
	snap := store.Snapshot()
	assert.Equal(t, types.ProcessedFiles{
		"/notes/a.md":     "",
		"/notes/b.md":     "",
		"/notes/sub/c.md": "",
	}, snap.ProcessedFiles)

	summary, err := Run(context.Background(), Options{Fs: fs, Tracker: store, Roots: store.Roots()})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)

	reloaded, err := backend.Read(context.Background())
	require.NoError(t, err)
	for path, fp := range reloaded.ProcessedFiles {
		assert.Len(t, fp, fingerprint.Size, path)
	}
}

func TestRunCancelledBeforeCommitRecordsNothing(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.md": note("A"),
		"b.md": note("B"),
		"c.md": note("C"),
		"d.md": note("D"),
		"e.md": note("E"),
	})
	backend := state.NewJSONFile(fs, "/config.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := openStore(t, backend)
	summary, err := Run(ctx, Options{
		Fs:      fs,
		Tracker: store,
		Roots:   testRoots,
		Progress: func(ev Event) {
			if ev.Index == 1 {
				cancel()
			}
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, store.Staged())
	assert.False(t, summary.Committed)

	restarted := openStore(t, backend)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, ok := restarted.LastFingerprint("/notes/" + name + ".md")
		assert.False(t, ok, name)
	}

	next := runOnce(t, fs, backend)
	assert.Equal(t, 5, next.Processed)
}

func TestRunConfigurationError(t *testing.T) {
	tests := []struct {
		name  string
		roots types.Roots
		field string
	}{
		{name: "missing source root", roots: types.Roots{Source: "/missing", Output: outRoot}, field: "source root"},
		{name: "missing output root", roots: types.Roots{Source: srcRoot, Output: "/missing"}, field: "output root"},
		{name: "unset source root", roots: types.Roots{Output: outRoot}, field: "source root"},
		{name: "source root is a file", roots: types.Roots{Source: "/notes/a.md", Output: outRoot}, field: "source root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFs(t, map[string]string{"a.md": note("A")})
			mem := state.NewMemory(types.NewPersistedState())

			_, err := Run(context.Background(), Options{
				Fs:      fs,
				Tracker: openStore(t, mem),
				Roots:   tt.roots,
			})
			require.Error(t, err)
			var cerr *types.ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
			assert.Equal(t, 0, mem.Writes, "no state written on configuration error")

			exists, _ := afero.Exists(fs, outRoot+"/a_prompt.md")
			assert.False(t, exists)
		})
	}
}

func TestRunReadFailureIsLocal(t *testing.T) {
	base := newFs(t, map[string]string{
		"a.md": note("A"),
		"b.md": note("B"),
	})
	fs := failingFs{Fs: base, path: "/notes/a.md"}
	mem := state.NewMemory(types.NewPersistedState())

	summary := runOnce(t, fs, mem)
	assert.Equal(t, 1, summary.Errored)
	assert.Equal(t, 1, summary.Processed)
	assert.True(t, summary.HasErrors())
	require.Len(t, summary.Errors, 1)

	var ioErr *types.IOError
	require.True(t, errors.As(summary.Errors[0], &ioErr))
	assert.Equal(t, "read", ioErr.Op)
	assert.True(t, errors.Is(ioErr, os.ErrPermission))

	assert.NotContains(t, mem.State.ProcessedFiles, "/notes/a.md")
	assert.Contains(t, mem.State.ProcessedFiles, "/notes/b.md")
}

func TestRunWriteFailureIsNotStaged(t *testing.T) {
	fs := newFs(t, map[string]string{"a.md": note("A")})
	mem := state.NewMemory(types.NewPersistedState())

	writer := output.NewWriter(afero.NewReadOnlyFs(fs))
	summary, err := Run(context.Background(), Options{
		Fs:      fs,
		Tracker: openStore(t, mem),
		Writer:  writer,
		Roots:   testRoots,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errored)
	assert.Equal(t, OutcomeFailed, summary.Files[0].Outcome)
	assert.Contains(t, summary.Files[0].Err, "write")
	assert.Empty(t, mem.State.ProcessedFiles)
	assert.Equal(t, 1, mem.Writes)
}

func TestRunCommitFailureIsReturned(t *testing.T) {
	fs := newFs(t, map[string]string{"a.md": note("A")})
	mem := state.NewMemory(types.NewPersistedState())
	mem.WriteErr = errors.New("read-only filesystem")

	summary, err := Run(context.Background(), Options{
		Fs:      fs,
		Tracker: openStore(t, mem),
		Roots:   testRoots,
	})
	require.Error(t, err)
	var perr *types.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, summary.Processed)
	assert.False(t, summary.Committed)
}

func TestRunProgressEvents(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.md": note("A prompt that is longer than the preview"),
		"b.md": "no markers",
	})
	mem := state.NewMemory(types.NewPersistedState())

	var events []Event
	_, err := Run(context.Background(), Options{
		Fs:            fs,
		Tracker:       openStore(t, mem),
		Roots:         testRoots,
		PreviewLength: 8,
		Progress:      func(ev Event) { events = append(events, ev) },
	})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, 0.5, events[0].Fraction)
	assert.Equal(t, 1.0, events[1].Fraction)
	assert.Equal(t, "extracted a.md", events[0].Message)
	assert.Equal(t, "A prompt...", events[0].Result.Preview)
	assert.Equal(t, "/prompts/a_prompt.md", events[0].Result.Destination)
	assert.Equal(t, "no prompt b.md (prompt markers not found)", events[1].Message)
	assert.NoError(t, events[1].Err)
}

func TestRunCustomMarkers(t *testing.T) {
	fs := newFs(t, map[string]string{"a.md": "## Ask\nwhy?\n## Answer\nbecause"})
	mem := state.NewMemory(types.NewPersistedState())

	summary, err := Run(context.Background(), Options{
		Fs:      fs,
		Tracker: openStore(t, mem),
		Roots:   testRoots,
		Markers: types.Markers{Start: "## Ask", End: "## Answer"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "# Prompt\n\nwhy?\n", readOutput(t, fs, "a_prompt.md"))
}

func TestRunRequiresTracker(t *testing.T) {
	_, err := Run(context.Background(), Options{Fs: newFs(t, nil), Roots: testRoots})
	require.Error(t, err)
}

func TestRunExtractsSymlinkedNote(t *testing.T) {
	dir := t.TempDir()
	roots := types.Roots{Source: filepath.Join(dir, "notes"), Output: filepath.Join(dir, "prompts")}
	require.NoError(t, os.MkdirAll(roots.Source, 0o755))
	require.NoError(t, os.MkdirAll(roots.Output, 0o755))
	target := filepath.Join(dir, "shared.md")
	require.NoError(t, os.WriteFile(target, []byte(note("linked prompt")), 0o644))
	require.NoError(t, os.Symlink(target, filepath.Join(roots.Source, "linked.md")))

	backend := state.NewMemory(types.NewPersistedState())
	summary, err := Run(context.Background(), Options{
		Fs:      afero.NewOsFs(),
		Tracker: openStore(t, backend),
		Roots:   roots,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	data, err := os.ReadFile(filepath.Join(roots.Output, "linked_prompt.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Prompt\n\nlinked prompt\n", string(data))
}
