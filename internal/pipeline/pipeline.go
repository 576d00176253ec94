package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/fpprobe/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each one advancing the iteration it
// receives.
type Step interface {
	// Do executes the step. A returned error stops the pipeline; it should
	// be a *model.StageError so callers can tell which stage failed.
	Do(ctx context.Context, it *model.Iteration) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// kindedStep is implemented by steps that report failures of a fixed kind.
type kindedStep interface {
	Kind() model.Kind
}

// stepKind returns the failure kind of step. Steps without a kind are
// treated as part of the browser session.
func stepKind(step Step) model.Kind {
	if k, ok := step.(kindedStep); ok {
		return k.Kind()
	}
	return model.KindSession
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
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

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stops at the first failure.
// The failing error is recorded on the iteration with it.Fail and returned.
// Cancellation is checked before each step and reported with the kind of
// the step that did not run; steps handle their own timeouts.
func (p *Pipeline) Execute(ctx context.Context, it *model.Iteration) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Debug("pipeline cancelled",
				"step", step.Name(),
				"iteration", it.Index,
				"reason", ctx.Err(),
			)
			err := model.NewStageError(stepKind(step), it.Index, step.Name(), ctx.Err())
			it.Fail(err)
			return err
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"iteration", it.Index,
		)

		if err := step.Do(ctx, it); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"iteration", it.Index,
				"error", err,
			)
			it.Fail(err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"iteration", it.Index,
			"state", it.State.String(),
		)
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
