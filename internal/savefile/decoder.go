package savefile

import (
	"io"
	"log/slog"

	"github.com/nao1215/savestat/internal/binread"
)

// Policy decides how many chunk inflate failures a decode tolerates.
type Policy int

const (
	// PolicyConservative stops at the first chunk that fails to inflate.
	PolicyConservative Policy = iota

	// PolicyLenient skips up to five failing chunks and stops at the sixth.
	PolicyLenient
)

// lenientMaxFailures is the number of failures PolicyLenient tolerates.
const lenientMaxFailures = 5

// MaxFailures returns the number of inflate failures tolerated before the
// chunk loop stops.
func (p Policy) MaxFailures() int {
	if p == PolicyLenient {
		return lenientMaxFailures
	}
	return 0
}

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyConservative:
		return "conservative"
	case PolicyLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// Widths of the redundant size block that follows the chunk lengths.
const (
	// RepeatedSizesStandard is the width used by the common stream variant.
	RepeatedSizesStandard = 16

	// RepeatedSizesExtended is the width used by the extended stream variant.
	RepeatedSizesExtended = 24
)

// Decoder decodes save containers. A Decoder holds configuration only and is
// safe for concurrent use.
type Decoder struct {
	logger         *slog.Logger
	policy         Policy
	repeatedWidth  int
	maxStringBytes int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPolicy sets the chunk failure policy.
func WithPolicy(p Policy) Option {
	return func(d *Decoder) {
		d.policy = p
	}
}

// WithRepeatedSizesWidth sets the width of the repeated size block.
// Only RepeatedSizesStandard and RepeatedSizesExtended are accepted; other
// values are ignored.
func WithRepeatedSizesWidth(width int) Option {
	return func(d *Decoder) {
		if width == RepeatedSizesStandard || width == RepeatedSizesExtended {
			d.repeatedWidth = width
		}
	}
}

// WithMaxStringBytes sets the string sanity ceiling used by the header decoder.
func WithMaxStringBytes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxStringBytes = n
		}
	}
}

// NewDecoder creates a Decoder. Without options it uses PolicyConservative,
// the standard repeated size width and the default string ceiling.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:         PolicyConservative,
		repeatedWidth:  RepeatedSizesStandard,
		maxStringBytes: binread.DefaultMaxStringBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Policy returns the configured failure policy.
func (d *Decoder) Policy() Policy {
	return d.policy
}

// RepeatedSizesWidth returns the configured repeated size block width.
func (d *Decoder) RepeatedSizesWidth() int {
	return d.repeatedWidth
}

// minChunkHeader is the smallest possible chunk header for the configured
// width: magic, archive version, max chunk size, both lengths and the
// repeated sizes.
func (d *Decoder) minChunkHeader() int {
	return 4 + 4 + 8 + 8 + 8 + d.repeatedWidth
}
