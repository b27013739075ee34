// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Markers delimit the extractable section of a source document.
type Markers struct {
	// Start is the literal line that opens the prompt section (e.g. "# Prompt").
	Start string `json:"start" yaml:"start" mapstructure:"start"`

	// End is the literal line that opens the following section (e.g. "# Output").
	End string `json:"end" yaml:"end" mapstructure:"end"`
}

// Template describes how an extracted prompt is wrapped when written.
type Template struct {
	// Heading is the first line of every output document.
	Heading string `json:"heading" yaml:"heading"`
}

// StateBackend identifies where processed-file state is persisted.
type StateBackend string

const (
	BackendJSON   StateBackend = "json"
	BackendSQLite StateBackend = "sqlite"
)

// Roots holds the two configured filesystem roots.
type Roots struct {
	// Source is the directory tree of markdown documents to scan.
	Source string `json:"source" yaml:"source"`

	// Output is the directory tree that mirrors Source with extracted prompts.
	Output string `json:"output" yaml:"output"`
}

// IsZero reports whether neither root is set.
func (r Roots) IsZero() bool {
	return r.Source == "" && r.Output == ""
}
