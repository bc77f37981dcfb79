package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/contactscan/internal/model"
)

// Step defines the interface that all enrichment steps must implement.
// Steps are executed in sequence, each receiving the record as modified by
// the previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state (crawler, domain lists)
// 2. It provides a Name() method for logging and debugging
// 3. Tests can substitute any step with a small fake
type Step interface {
	// Do executes the step against the record.
	// Returning ErrSkipRemaining ends the pipeline early without error.
	// Other errors are critical; per-site failures should be expressed
	// through the record status and return nil.
	Do(ctx context.Context, b *model.Business) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and subsequent steps
// still execute.
//
// Design decision: The default is to stop on error because a critical step
// failure (e.g. the session store refusing writes) usually affects every
// later step too. Distance calculation does not depend on the crawl, so
// callers that want it regardless can opt in.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
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

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence against b.
//
// Design decision: We check ctx before each step rather than during,
// because steps handle their own timeouts (the crawler checks ctx between
// pages and the fetcher during backoff).
//
// Returns the first error encountered if continueOnError is false,
// the context error on cancellation, or nil.
func (p *Pipeline) Execute(ctx context.Context, b *model.Business) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"business", b.Name,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"business", b.Name,
		)

		err := step.Do(ctx, b)
		if errors.Is(err, ErrSkipRemaining) {
			p.logger.Debug("remaining steps skipped",
				"step", step.Name(),
				"business", b.Name,
				"status", string(b.Status),
			)
			return nil
		}
		if err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"business", b.Name,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
