package model

import "fmt"

// Severity is the weight of a diagnostic raised while parsing.
type Severity int

const (
	// SeverityInfo marks notes that do not affect the counts.
	SeverityInfo Severity = iota

	// SeverityWarning marks degraded output, such as a chunk that failed to
	// inflate or mod metadata that could not be parsed.
	SeverityWarning

	// SeverityError marks a condition that stopped a stage early.
	// The run itself may still succeed with partial results.
	SeverityError
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Stage names the part of the parse that raised a diagnostic.
type Stage string

// Stage constants.
const (
	StageHeader     Stage = "header"
	StageDecompress Stage = "decompress"
	StageExtract    Stage = "extract"
	StageClassify   Stage = "classify"
)

// Diagnostic is a non-fatal problem noticed during a parse run.
// Diagnostics are logged and shown by the human-readable writers, but are
// never part of the JSON report.
type Diagnostic struct {
	Severity Severity
	Stage    Stage
	Message  string
}

// NewDiagnostic formats a diagnostic message.
func NewDiagnostic(severity Severity, stage Stage, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: severity,
		Stage:    stage,
		Message:  fmt.Sprintf(format, args...),
	}
}

// String returns "[SEVERITY] stage: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Stage, d.Message)
}
