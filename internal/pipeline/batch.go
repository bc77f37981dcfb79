package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/contactscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor enriches a list of business records.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on one record
// 2. The primary pass and the retry pass need different strategies
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each record.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of records enriched at once.
	concurrency int

	// now stamps ScrapedAt on each enriched record.
	now func() time.Time

	// logger is used for batch-level logging.
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

// WithConcurrency sets the maximum number of records enriched at once.
// Default is 1: the primary pass crawls one site at a time.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithClock sets the time source used for ScrapedAt.
func WithClock(now func() time.Time) BatchOption {
	return func(b *BatchProcessor) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each record to create a fresh
// pipeline instance, so step state never leaks between records.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     1,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch enriches copies of records and returns them in input order.
// The input slice is not modified.
//
// Records that were not reached because ctx was cancelled keep their input
// values; the context error is returned alongside the partial results.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, records []model.Business) ([]model.Business, error) {
	results := make([]model.Business, len(records))
	for i := range records {
		results[i] = records[i].Clone()
	}

	err := bp.ProcessBatchWithCallback(ctx, records, func(b model.Business, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = b
	})

	return results, err
}

// ProcessBatchWithCallback enriches records and calls callback for each
// finished record. This is useful for persisting results as they arrive.
//
// The callback receives the enriched copy and the index of the record in the
// original slice. It is called from the goroutine that finished the record,
// so it should be thread-safe when concurrency is above one.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	records []model.Business,
	callback func(b model.Business, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_records", len(records),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			b := records[i].Clone()
			bp.logger.Debug("enriching record",
				"business", b.Name,
				"index", i+1,
				"total", len(records),
			)

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, &b); err != nil {
				bp.logger.Warn("enrichment failed",
					"business", b.Name,
					"error", err,
				)
				// Cancellation stops the batch; other failures only
				// affect this record.
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			b.ScrapedAt = bp.now()

			callback(b, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_records", len(records),
		"elapsed", time.Since(startTime),
	)

	return err
}
