package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of files parsed at once when no
// concurrency is configured.
const DefaultConcurrency = 4

// BatchProcessor parses several files concurrently. Each file still goes
// through its own strictly sequential pipeline; nothing is shared between
// runs except the immutable decoder and rule tables.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for each file.
	pipelineFactory func() *Pipeline

	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent parses.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatchWithCallback parses every path and returns one Run per path,
// in input order. A failed file does not stop the others; its error is kept
// in Run.Err. The returned error is non-nil only when ctx is cancelled.
//
// callback, when non-nil, is called as each file finishes. It runs on the
// worker goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, paths []string, callback func(run *Run, index int)) ([]*Run, error) {
	return bp.process(ctx, paths, callback)
}

func (bp *BatchProcessor) process(ctx context.Context, paths []string, callback func(*Run, int)) ([]*Run, error) {
	bp.logger.Debug("starting batch",
		"files", len(paths),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Each goroutine writes only its own index.
	runs := make([]*Run, len(paths))
	for i, path := range paths {
		runs[i] = NewRun(path)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, run := range runs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				run.Err = gctx.Err()
				return run.Err
			default:
			}

			if err := bp.pipelineFactory().Execute(gctx, run); err != nil {
				bp.logger.Debug("parse failed",
					"path", run.Report.Source.Path,
					"error", err,
				)
			}
			if callback != nil {
				callback(run, i)
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch complete",
		"files", len(paths),
		"elapsed", time.Since(startTime),
	)

	return runs, err
}
