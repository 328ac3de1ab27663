package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/savestat/internal/inventory"
	"github.com/nao1215/savestat/internal/model"
	"github.com/nao1215/savestat/internal/savefile"
)

// ErrNotRegularFile is returned when the target path is a directory or device.
var ErrNotRegularFile = errors.New("not a regular file")

// ReadStep loads the file into memory and computes its digest.
type ReadStep struct{}

// NewReadStep creates a new read step.
func NewReadStep() *ReadStep {
	return &ReadStep{}
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read"
}

// Do reads the whole file. Save files are decoded from memory.
func (s *ReadStep) Do(_ context.Context, run *Run) error {
	path := run.Report.Source.Path

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read save file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("failed to read save file %s: %w", path, ErrNotRegularFile)
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-provided save path is intentional
	if err != nil {
		return fmt.Errorf("failed to read save file: %w", err)
	}

	sum := sha3.Sum256(data)
	run.Data = data
	run.Report.Source.Size = int64(len(data))
	run.Report.Source.Digest = hex.EncodeToString(sum[:])
	return nil
}

// HeaderStep decodes the save header.
type HeaderStep struct {
	decoder *savefile.Decoder
}

// NewHeaderStep creates a new header step.
func NewHeaderStep(decoder *savefile.Decoder) *HeaderStep {
	return &HeaderStep{decoder: decoder}
}

// Name returns the step name.
func (s *HeaderStep) Name() string {
	return "header"
}

// Do decodes the header. A malformed header is fatal.
func (s *HeaderStep) Do(_ context.Context, run *Run) error {
	header, diags, err := s.decoder.DecodeHeader(run.Data)
	if err != nil {
		return err
	}
	run.Report.Header = *header
	for _, d := range diags {
		run.Report.AddDiagnostic(d)
	}
	return nil
}

// DecompressStep reassembles the chunk stream.
type DecompressStep struct {
	decoder *savefile.Decoder
}

// NewDecompressStep creates a new decompress step.
func NewDecompressStep(decoder *savefile.Decoder) *DecompressStep {
	return &DecompressStep{decoder: decoder}
}

// Name returns the step name.
func (s *DecompressStep) Name() string {
	return "decompress"
}

// Do inflates every chunk it can. Only a missing stream marker is fatal.
func (s *DecompressStep) Do(_ context.Context, run *Run) error {
	body, err := s.decoder.Decompress(run.Data)
	if err != nil {
		return err
	}
	run.Body = body

	src := &run.Report.Source
	src.Chunks = body.Chunks
	src.ChunkFailures = body.Failures
	src.DeclaredSize = body.DeclaredSize
	src.BodySize = len(body.Data)
	src.Truncated = body.Truncated

	for _, d := range body.Diagnostics {
		run.Report.AddDiagnostic(d)
	}
	if body.Chunks == 0 {
		run.Report.AddDiagnostic(model.NewDiagnostic(model.SeverityWarning, model.StageDecompress,
			"no chunk could be inflated; the inventory will be empty"))
	}
	return nil
}

// ExtractStep finds placed-object references in the body.
type ExtractStep struct {
	extractor *inventory.Extractor
}

// NewExtractStep creates a new extract step.
func NewExtractStep(extractor *inventory.Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do scans the body.
func (s *ExtractStep) Do(_ context.Context, run *Run) error {
	var data []byte
	if run.Body != nil {
		data = run.Body.Data
	}

	ex := s.extractor.Extract(data)
	run.Extraction = ex
	run.Report.Source.Instances = len(ex.Instances)

	if ex.Skipped > 0 {
		run.Report.AddDiagnostic(model.NewDiagnostic(model.SeverityInfo, model.StageExtract,
			"skipped %d references with ids that do not fit in 64 bits", ex.Skipped))
	}
	return nil
}

// ClassifyStep aggregates the extraction into the report inventory.
type ClassifyStep struct {
	classifier *inventory.Classifier
}

// NewClassifyStep creates a new classify step.
func NewClassifyStep(classifier *inventory.Classifier) *ClassifyStep {
	return &ClassifyStep{classifier: classifier}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do classifies the extracted counts.
func (s *ClassifyStep) Do(_ context.Context, run *Run) error {
	counts := map[string]int{}
	if run.Extraction != nil {
		counts = run.Extraction.Counts
	}

	inv := s.classifier.Classify(counts)
	run.Report.Factory = inv.Factory
	run.Report.Totals = inv.Totals
	run.Report.Unmapped = inv.Unmapped
	run.Report.Summary = inv.Summary

	if n := len(inv.Unmapped); n > 0 {
		run.Report.AddDiagnostic(model.NewDiagnostic(model.SeverityInfo, model.StageClassify,
			"%d frequent classes have no display name", n))
	}
	return nil
}
