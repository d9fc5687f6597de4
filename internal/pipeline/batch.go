package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/schoolscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of assessments run at once when no
// limit is configured.
const DefaultConcurrency = 4

// BatchProcessor runs the pipeline over many assessments concurrently.
//
// Design decision: Batch handling lives outside Pipeline so that a single
// assessment stays a plain sequential run. Each assessment gets a fresh
// pipeline from the factory, so no step state leaks between institutions.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each assessment.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent assessments.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent assessments.
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

// ProcessBatch runs every assessment through its own pipeline.
// The assessments are updated in place and returned in input order.
//
// A failing assessment does not stop the others; its error is recorded on
// the assessment itself. The returned error is non-nil only when the
// context was cancelled before all assessments could start.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, assessments []*model.Assessment) ([]*model.Assessment, error) {
	bp.logger.Info("starting batch processing",
		"total", len(assessments),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	err := bp.ProcessBatchWithCallback(ctx, assessments, func(*model.Assessment, int) {})

	bp.logger.Info("batch processing complete",
		"total", len(assessments),
		"elapsed", time.Since(startTime),
	)

	return assessments, err
}

// ProcessBatchWithCallback runs every assessment and calls callback as
// each one completes. The callback receives the assessment and its index
// in the input slice. It is called from worker goroutines and must be
// safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	assessments []*model.Assessment,
	callback func(assessment *model.Assessment, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, assessment := range assessments {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("assessing institution",
				"urn", assessment.Institution.URN,
				"index", i+1,
				"total", len(assessments),
			)

			if err := bp.pipelineFactory().Execute(ctx, assessment); err != nil {
				bp.logger.Warn("assessment failed",
					"urn", assessment.Institution.URN,
					"error", err,
				)
			}

			callback(assessment, i)
			return nil
		})
	}

	return g.Wait()
}
