package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// File.Validate. Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no save file is given.
	ErrNoTarget = errors.New("no target specified: provide at least one save file")

	// ErrInvalidRepeatedWidth is returned for a repeated size width other than 16 or 24.
	ErrInvalidRepeatedWidth = errors.New("invalid repeated sizes width: must be 16 or 24")

	// ErrInvalidMaxStringBytes is returned when the string cap is negative.
	ErrInvalidMaxStringBytes = errors.New("invalid max string bytes: must be non-negative")

	// ErrInvalidMinUnmapped is returned when the unmapped threshold is below 1.
	ErrInvalidMinUnmapped = errors.New("invalid min unmapped count: must be at least 1")

	// ErrInvalidMaxUnmapped is returned when the unmapped limit is negative.
	ErrInvalidMaxUnmapped = errors.New("invalid max unmapped: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --text and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --text and --markdown cannot be used together")

	// ErrInvalidDisplayRule is returned for a display rule without a class
	// or display name.
	ErrInvalidDisplayRule = errors.New("invalid display rule: class and display are required")

	// ErrUnknownCategory is returned for a category rule naming a category
	// that does not exist.
	ErrUnknownCategory = errors.New("unknown category")
)
