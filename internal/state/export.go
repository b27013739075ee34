// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

// ExportFormat selects the encoding used by Export.
type ExportFormat string

const (
	FormatYAML ExportFormat = "yaml"
	FormatJSON ExportFormat = "json"
)

// ExportEntry is one processed file in an export.
type ExportEntry struct {
	Path        string `json:"path" yaml:"path"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Pending     bool   `json:"pending,omitempty" yaml:"pending,omitempty"`
}

// ExportDocument is the exported form of the persisted state.
type ExportDocument struct {
	Roots types.Roots   `json:"roots" yaml:"roots"`
	Files []ExportEntry `json:"files" yaml:"files"`
}

// BuildExport converts st into an ExportDocument with files sorted by path.
// Entries with an empty fingerprint (upgraded from the legacy list form)
// are marked pending.
func BuildExport(st types.PersistedState) ExportDocument {
	doc := ExportDocument{
		Roots: st.Roots(),
		Files: make([]ExportEntry, 0, len(st.ProcessedFiles)),
	}
	for path, fp := range st.ProcessedFiles {
		doc.Files = append(doc.Files, ExportEntry{
			Path:        path,
			Fingerprint: fp,
			Pending:     fp == "",
		})
	}
	sort.Slice(doc.Files, func(i, j int) bool {
		return doc.Files[i].Path < doc.Files[j].Path
	})
	return doc
}

// Export writes st to w in the requested format.
func Export(w io.Writer, st types.PersistedState, format ExportFormat) error {
	doc := BuildExport(st)

	switch format {
	case FormatYAML, "":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
