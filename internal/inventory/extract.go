package inventory

import (
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind tells which reference pattern produced an Instance.
type Kind int

const (
	// KindBuildable is a placed building ("Build_" class prefix).
	KindBuildable Kind = iota
	// KindVehicle is a vehicle ("BP_" class prefix).
	KindVehicle
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBuildable:
		return "buildable"
	case KindVehicle:
		return "vehicle"
	default:
		return "unknown"
	}
}

// Reference patterns. The first group is the class token including its "_C"
// suffix, the second the instance id.
var (
	buildablePattern = regexp.MustCompile(`PersistentLevel\.(Build_[A-Za-z0-9_]+_C)_(\d+)`)
	vehiclePattern   = regexp.MustCompile(`PersistentLevel\.(BP_[A-Za-z0-9_]+_C)_(\d+)`)
)

// Instance is one placed object identified by its class token and id.
type Instance struct {
	ClassToken string
	ID         uint64
	Kind       Kind
}

// BaseName returns the class token without the "_C" suffix.
func (i Instance) BaseName() string {
	return BaseName(i.ClassToken)
}

// BaseName strips the "_C" class suffix and any trailing underscores.
func BaseName(classToken string) string {
	return strings.TrimRight(strings.TrimSuffix(classToken, "_C"), "_")
}

// Extraction is the result of scanning a body.
//
// Counts are an approximate lower bound: they are recovered from object
// references that happen to appear in the serialized data, not from a decoded
// object table.
type Extraction struct {
	// Instances holds every distinct (class token, id) pair, sorted.
	Instances []Instance

	// Counts maps base class names to the number of distinct instances.
	Counts map[string]int

	// Matches is the number of raw pattern matches before deduplication.
	Matches int

	// Skipped is the number of matches whose id did not fit in 64 bits.
	Skipped int
}

// Extractor finds placed-object references in a decompressed body.
// It holds no per-scan state and is safe for concurrent use.
type Extractor struct {
	logger   *slog.Logger
	patterns []refPattern
}

type refPattern struct {
	re   *regexp.Regexp
	kind Kind
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets the logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor for buildable and vehicle references.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		patterns: []refPattern{
			{re: buildablePattern, kind: KindBuildable},
			{re: vehiclePattern, kind: KindVehicle},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type instanceKey struct {
	token string
	id    uint64
}

// Extract scans body and returns the distinct instances it references.
// The same (class token, id) pair is counted once however often it recurs.
func (e *Extractor) Extract(body []byte) *Extraction {
	result := &Extraction{Counts: make(map[string]int)}
	seen := make(map[instanceKey]struct{})

	for _, p := range e.patterns {
		for _, m := range p.re.FindAllSubmatchIndex(body, -1) {
			result.Matches++
			token := string(body[m[2]:m[3]])
			digits := body[m[4]:m[5]]

			id, err := strconv.ParseUint(string(digits), 10, 64)
			if err != nil {
				result.Skipped++
				e.logger.Debug("skipping reference with oversized id",
					"class", token, "digits", len(digits))
				continue
			}

			key := instanceKey{token: token, id: id}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			inst := Instance{ClassToken: token, ID: id, Kind: p.kind}
			result.Instances = append(result.Instances, inst)
			result.Counts[inst.BaseName()]++
		}
	}

	sort.Slice(result.Instances, func(i, j int) bool {
		a, b := result.Instances[i], result.Instances[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.ClassToken != b.ClassToken {
			return a.ClassToken < b.ClassToken
		}
		return a.ID < b.ID
	})

	e.logger.Debug("extracted instances",
		"matches", result.Matches,
		"distinct", len(result.Instances),
		"classes", len(result.Counts))

	return result
}
