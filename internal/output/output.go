// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output writes extracted prompts into a tree that mirrors the
// source tree, renaming foo.md to foo_prompt.md.
package output

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

const (
	// DefaultExt is the extension of source documents.
	DefaultExt = ".md"
	// DefaultSuffix replaces DefaultExt in output file names.
	DefaultSuffix = "_prompt.md"
)

// DefaultTemplate wraps every prompt under a "# Prompt" heading.
var DefaultTemplate = types.Template{Heading: "# Prompt"}

// ErrPathInvalid reports a relative path that is absolute or escapes its root.
var ErrPathInvalid = errors.New("invalid relative path")

// Render wraps prompt in t: heading, blank line, prompt, trailing newline.
func Render(t types.Template, prompt string) string {
	return t.Heading + "\n\n" + prompt + "\n"
}

// Writer writes rendered prompts under an output root.
type Writer struct {
	Fs       afero.Fs
	Template types.Template
	Ext      string
	Suffix   string
}

// NewWriter returns a Writer on fs using the default template, extension
// and suffix.
func NewWriter(fs afero.Fs) *Writer {
	return &Writer{
		Fs:       fs,
		Template: DefaultTemplate,
		Ext:      DefaultExt,
		Suffix:   DefaultSuffix,
	}
}

// Destination maps a source-relative path to its location under outputRoot.
// Directory segments are kept; only the trailing extension is replaced.
func (w *Writer) Destination(outputRoot, rel string) (string, error) {
	clean := filepath.Clean(rel)
	if clean == "." || clean == "" || filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %q", ErrPathInvalid, rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathInvalid, rel)
	}

	name := strings.TrimSuffix(clean, w.Ext) + w.Suffix
	return filepath.Join(outputRoot, name), nil
}

// Write renders prompt and writes it to the mirrored destination of rel,
// creating missing directories and overwriting any existing file. It
// returns the destination path.
func (w *Writer) Write(outputRoot, rel, prompt string) (string, error) {
	dest, err := w.Destination(outputRoot, rel)
	if err != nil {
		return "", err
	}

	if err := w.Fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	if err := afero.WriteFile(w.Fs, dest, []byte(Render(w.Template, prompt)), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}
