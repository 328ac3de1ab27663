package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultRepeatedSizesWidth is the width in bytes of the repeated size
	// block that follows each chunk header. Some saves carry 24.
	DefaultRepeatedSizesWidth = 16

	// DefaultMaxStringBytes caps a single length-prefixed header string.
	DefaultMaxStringBytes = 2_000_000

	// DefaultMinUnmappedCount is the smallest count at which an unresolved
	// class is listed as unmapped.
	DefaultMinUnmappedCount = 3

	// DefaultMaxUnmapped is the number of unmapped classes kept in a report.
	DefaultMaxUnmapped = 30

	// DefaultBatchSize is the number of save files parsed concurrently.
	// Each parse holds a full decompressed body in memory, so keep it small.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "savestat"
)

// Config holds all options for a parse run.
// It is populated from CLI flags and the optional .savestat file and passed
// down explicitly; there is no global configuration.
type Config struct {
	// Lenient tolerates up to five failed chunks before aborting.
	// The default policy aborts on the first failure.
	Lenient bool

	// RepeatedSizesWidth is 16 or 24.
	RepeatedSizesWidth int

	// MaxStringBytes caps a single header string. Zero means the default.
	MaxStringBytes int

	// MinUnmappedCount is the unmapped reporting threshold.
	MinUnmappedCount int

	// MaxUnmapped is the number of unmapped classes kept, largest first.
	MaxUnmapped int

	// Verbose enables debug logging.
	Verbose bool

	// BatchSize is the number of files parsed concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, .savestat is searched for in the current directory and
	// the user's home directory, then config.yaml in XDGConfigDir.
	ConfigFilePath string

	// Rules holds the classifier rules loaded from the config file.
	Rules *File

	// TextReport prints the human-readable summary instead of JSON.
	// Mutually exclusive with MarkdownReport.
	TextReport bool

	// MarkdownReport prints GitHub Flavored Markdown instead of JSON.
	// Mutually exclusive with TextReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty the report goes to stdout.
	ReportFile string

	// Targets is the list of save files to parse.
	Targets []string

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/savestat on Linux).
	DBDir string

	// SaveToDB stores each successful report for later comparison.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		RepeatedSizesWidth: DefaultRepeatedSizesWidth,
		MaxStringBytes:     DefaultMaxStringBytes,
		MinUnmappedCount:   DefaultMinUnmappedCount,
		MaxUnmapped:        DefaultMaxUnmapped,
		BatchSize:          DefaultBatchSize,
		DBDir:              XDGDataDir(),
		SaveToDB:           true,
	}
}

// XDGDataDir returns the XDG data directory for savestat.
// On Linux: ~/.local/share/savestat
// On macOS: ~/Library/Application Support/savestat
// On Windows: %LOCALAPPDATA%\savestat
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for savestat.
// On Linux: ~/.config/savestat
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile copies the decoder and classifier settings of f into c.
// Only values present in the file are applied; the classifier rules are
// kept as-is in c.Rules. Flags given explicitly on the command line should
// be applied after this call.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.Rules = f
	if f.Decoder.Lenient != nil {
		c.Lenient = *f.Decoder.Lenient
	}
	if f.Decoder.RepeatedSizesWidth != 0 {
		c.RepeatedSizesWidth = f.Decoder.RepeatedSizesWidth
	}
	if f.Decoder.MaxStringBytes != 0 {
		c.MaxStringBytes = f.Decoder.MaxStringBytes
	}
	if f.Classifier.MinUnmappedCount != 0 {
		c.MinUnmappedCount = f.Classifier.MinUnmappedCount
	}
	if f.Classifier.MaxUnmapped != nil {
		c.MaxUnmapped = *f.Classifier.MaxUnmapped
	}
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.RepeatedSizesWidth != 16 && c.RepeatedSizesWidth != 24 {
		return ErrInvalidRepeatedWidth
	}
	if c.MaxStringBytes < 0 {
		return ErrInvalidMaxStringBytes
	}
	if c.MinUnmappedCount < 1 {
		return ErrInvalidMinUnmapped
	}
	if c.MaxUnmapped < 0 {
		return ErrInvalidMaxUnmapped
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.TextReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
