// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract locates the prompt section of a markdown document.
//
// The section runs from the end of the start marker to the beginning of the
// end marker. Both markers are searched from the beginning of the document
// independently of each other, so an end marker that appears before the
// start marker produces an empty section rather than a search past it.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

// DefaultMarkers are the headings used by prompt/output notes.
var DefaultMarkers = types.Markers{
	Start: "# Prompt",
	End:   "# Output",
}

// Prompt returns the trimmed text between m.Start and m.End in text. The
// boolean is false when either marker is absent.
func Prompt(text string, m types.Markers) (string, bool) {
	start := strings.Index(text, m.Start)
	if start == -1 {
		return "", false
	}
	end := strings.Index(text, m.End)
	if end == -1 {
		return "", false
	}

	from := start + len(m.Start)
	if end <= from {
		return "", true
	}
	return strings.TrimSpace(text[from:end]), true
}

// Preview returns at most n runes of prompt with newlines flattened, for
// single-line log output. An ellipsis is appended when the prompt is cut.
func Preview(prompt string, n int) string {
	flat := strings.Join(strings.Fields(prompt), " ")
	if n <= 0 || utf8.RuneCountInString(flat) <= n {
		return flat
	}
	runes := []rune(flat)
	return string(runes[:n]) + "..."
}
