package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/schoolscan/internal/model"
)

// Step is one stage of an assessment. A step reads what earlier stages left
// on the assessment and adds its own findings.
//
// Do returns an error only when the assessment cannot go on. Problems that
// still leave something to report, such as a website that does not answer,
// are recorded on the assessment instead.
type Step interface {
	Do(ctx context.Context, assessment *model.Assessment) error
	Name() string
}

// Pipeline runs steps in the order they were added.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running the remaining steps after one fails.
// The failure is still recorded on the assessment.
//
// It is off by default because the matcher has nothing to work with when
// collection fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New returns an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against assessment.
//
// Cancellation is only observed between steps; a step that blocks is
// expected to watch ctx itself. When ctx is done the assessment is marked
// as timed out and ctx.Err() is returned.
func (p *Pipeline) Execute(ctx context.Context, assessment *model.Assessment) error {
	urn := assessment.Institution.URN
	started := time.Now()

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("assessment interrupted",
				"urn", urn,
				"next_step", step.Name(),
				"reason", err,
			)
			assessment.TimedOut = true
			return err
		}

		err := p.runStep(ctx, step, assessment)
		if err != nil {
			assessment.SetError(err)
			if !p.continueOnError {
				p.logger.Debug("assessment stopped",
					"urn", urn,
					"completed", i,
					"remaining", len(p.steps)-i-1,
				)
				return err
			}
		}
		assessment.AddPerformedStep(step.Name())
	}

	p.logger.Debug("assessment finished",
		"urn", urn,
		"steps", len(p.steps),
		"elapsed", time.Since(started),
	)
	return nil
}

// runStep runs a single step and logs its outcome. An empty area list is
// an expected answer, so it is logged at INFO rather than ERROR.
func (p *Pipeline) runStep(ctx context.Context, step Step, assessment *model.Assessment) error {
	attrs := []any{"step", step.Name(), "urn", assessment.Institution.URN}
	p.logger.Info("running step", attrs...)

	begin := time.Now()
	err := step.Do(ctx, assessment)
	attrs = append(attrs, "elapsed", time.Since(begin))

	switch {
	case err == nil:
		p.logger.Debug("step done", attrs...)
	case errors.Is(err, model.ErrNoImprovementAreas):
		p.logger.Info("no improvement areas", append(attrs, "error", err)...)
	default:
		p.logger.Error("step failed", append(attrs, "error", err)...)
	}
	return err
}

// StepCount reports how many steps were added.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames lists the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
