package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/savestat/internal/inventory"
	"github.com/nao1215/savestat/internal/model"
	"github.com/nao1215/savestat/internal/savefile"
)

// Run carries the state of one file through the pipeline.
// Each step reads what earlier steps produced and fills in its own part.
type Run struct {
	// Report is the result being built.
	Report *model.Report

	// Data is the raw file contents. It is released when the run ends.
	Data []byte

	// Body is the reassembled chunk stream. It is released when the run ends.
	Body *savefile.Body

	// Extraction holds the object references found in Body.
	Extraction *inventory.Extraction

	// Err is the fatal error that stopped the run, if any.
	Err error

	// Performed lists the steps that completed, in order.
	Performed []string
}

// NewRun creates a Run for the file at path.
func NewRun(path string) *Run {
	return &Run{Report: model.NewReport(path)}
}

// Failed reports whether the run stopped on a fatal error.
func (r *Run) Failed() bool {
	return r.Err != nil
}

func (r *Run) release() {
	r.Data = nil
	r.Body = nil
}

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step. A returned error is fatal for the run;
	// recoverable problems are recorded as report diagnostics.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order for a single file.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// NewParser builds the standard read, header, decompress, extract and
// classify pipeline.
func NewParser(decoder *savefile.Decoder, extractor *inventory.Extractor, classifier *inventory.Classifier, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewReadStep(),
		NewHeaderStep(decoder),
		NewDecompressStep(decoder),
		NewExtractStep(extractor),
		NewClassifyStep(classifier),
	)
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stops at the first fatal error,
// which is also stored in run.Err. Context cancellation is checked between
// steps. New diagnostics are logged after every step.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	defer run.release()

	p.logger.Debug("starting pipeline",
		"path", run.Report.Source.Path,
		"steps", p.StepNames(),
	)

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("parse cancelled",
				"step", step.Name(),
				"path", run.Report.Source.Path,
				"reason", ctx.Err(),
			)
			run.Err = ctx.Err()
			return run.Err
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"path", run.Report.Source.Path,
		)

		seen := len(run.Report.Diagnostics)
		err := step.Do(ctx, run)
		p.logDiagnostics(run, seen)

		if err != nil {
			// The caller reports the error; this is only a trace.
			p.logger.Debug("step failed",
				"step", step.Name(),
				"path", run.Report.Source.Path,
				"error", err,
			)
			run.Err = err
			return err
		}

		run.Performed = append(run.Performed, step.Name())
	}

	return nil
}

func (p *Pipeline) logDiagnostics(run *Run, from int) {
	for _, d := range run.Report.Diagnostics[from:] {
		level := slog.LevelWarn
		if d.Severity == model.SeverityInfo {
			level = slog.LevelInfo
		}
		p.logger.Log(context.Background(), level, d.Message,
			"stage", string(d.Stage),
			"path", run.Report.Source.Path,
		)
	}
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
