package model

import (
	"time"

	"github.com/google/uuid"
)

// Report is the result of parsing one save file.
// It is the structure written by the JSON writer and stored in the history
// database, so field names are part of the output contract.
type Report struct {
	// Source describes the input file and how much of it was decoded.
	Source Source `json:"source"`

	// Header is the decoded save header.
	Header SaveHeader `json:"header"`

	// Factory maps each non-empty category to display name → count.
	Factory Factory `json:"factory"`

	// Totals holds per-category totals and the grand total.
	Totals Totals `json:"totals"`

	// Unmapped lists base class names that no display rule resolved and
	// that occurred often enough to be worth reporting.
	Unmapped Tally `json:"unmapped,omitempty"`

	// Summary is a one-line human readable digest of Totals.
	Summary string `json:"summary"`

	// Diagnostics collects non-fatal problems. They go to the log and the
	// human-readable writers only.
	Diagnostics []Diagnostic `json:"-"`
}

// Source describes the parsed file and the chunk stream statistics.
type Source struct {
	// RunID uniquely identifies this parse run.
	RunID string `json:"runId"`

	// Path is the file path as given on the command line.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Digest is the hex SHA3-256 of the file contents.
	Digest string `json:"digest"`

	// ParsedAt is when the run started.
	ParsedAt time.Time `json:"parsedAt"`

	// Chunks is the number of chunks inflated successfully.
	Chunks int `json:"chunks"`

	// ChunkFailures is the number of chunks that failed to inflate.
	ChunkFailures int `json:"chunkFailures"`

	// DeclaredSize is the sum of the uncompressed sizes declared by the
	// inflated chunks. It is informational only.
	DeclaredSize uint64 `json:"declaredSize"`

	// BodySize is the size of the reassembled body in bytes.
	BodySize int `json:"bodySize"`

	// Instances is the number of distinct object references found.
	Instances int `json:"instances"`

	// Truncated is true when the chunk stream ended in a partial chunk.
	Truncated bool `json:"truncated,omitempty"`
}

// NewReport creates a Report for the file at path with a fresh run id.
func NewReport(path string) *Report {
	return &Report{
		Source: Source{
			RunID:    uuid.NewString(),
			Path:     path,
			ParsedAt: time.Now().UTC(),
		},
		Factory: Factory{},
		Totals:  Totals{Categories: Tally{}},
	}
}

// AddDiagnostic appends a diagnostic to the report.
func (r *Report) AddDiagnostic(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// HasDiagnostics reports whether any diagnostic was recorded.
func (r *Report) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}
