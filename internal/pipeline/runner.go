package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/fpprobe/internal/artifact"
	"github.com/nao1215/fpprobe/internal/browser"
	"github.com/nao1215/fpprobe/internal/config"
	"github.com/nao1215/fpprobe/internal/model"
	"github.com/nao1215/fpprobe/internal/verify"
)

// Recorder receives every finished iteration. The history store
// implements it.
type Recorder interface {
	SaveSample(ctx context.Context, sample model.Sample) error
}

// Factory builds the pipeline for one iteration around its session.
type Factory func(session browser.Session) *Pipeline

// Runner executes the configured number of iterations one after another.
// Each iteration gets a fresh browser session and a fresh pipeline, and a
// failing iteration never stops the ones after it.
type Runner struct {
	cfg      *config.Config
	launcher browser.Launcher
	factory  Factory
	recorder Recorder
	logger   *slog.Logger
	runID    string

	iterations []*model.Iteration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger. Its Info records are the iteration
// events written to the shared log file.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithRecorder stores every finished iteration in rec.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		r.runID = id
	}
}

// WithFactory replaces the default pipeline factory.
func WithFactory(f Factory) RunnerOption {
	return func(r *Runner) {
		r.factory = f
	}
}

// NewRunner creates a Runner for cfg. Sessions come from launcher.
func NewRunner(cfg *config.Config, launcher browser.Launcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		launcher: launcher,
		runID:    uuid.NewString(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.factory == nil {
		r.factory = r.defaultFactory()
	}

	return r
}

// defaultFactory wires identity, navigation, capture, verification and
// persistence in that order.
func (r *Runner) defaultFactory() Factory {
	capturer := artifact.NewCapturer(r.cfg.OutputDir, r.cfg.PaperSize, artifact.WithLogger(r.logger))
	client := verify.NewClient(
		r.cfg.VerificationEndpoint,
		r.cfg.RequestHeaders,
		r.cfg.RequestPayload,
		verify.WithLogger(r.logger),
	)

	return func(session browser.Session) *Pipeline {
		p := New(WithLogger(r.logger))
		p.AddSteps(
			NewIdentityStep(session, r.cfg.UserAgent),
			NewNavigateStep(session, r.cfg.TargetURL),
			NewCaptureStep(capturer, session),
			NewVerifyStep(client, session),
			NewPersistStep(r.cfg.OutputDir, WithPersistLogger(r.logger)),
		)
		return p
	}
}

// RunID returns the identifier shared by all iterations of this runner.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes iterations 1..N strictly in sequence. Iteration errors are
// logged and recorded on the iteration; none of them is returned.
func (r *Runner) Run(ctx context.Context) {
	start := time.Now()
	r.logger.Debug("starting run",
		"run_id", r.runID,
		"iterations", r.cfg.IterationCount,
		"target", r.cfg.TargetURL,
	)

	r.iterations = make([]*model.Iteration, 0, r.cfg.IterationCount)
	for i := 1; i <= r.cfg.IterationCount; i++ {
		r.iterations = append(r.iterations, r.runIteration(ctx, i))
	}

	r.logger.Debug("run complete",
		"run_id", r.runID,
		"elapsed", time.Since(start),
	)
}

// runIteration drives one iteration. The session is closed exactly once,
// after any error has been logged and before the completion event.
func (r *Runner) runIteration(ctx context.Context, i int) *model.Iteration {
	it := model.NewIteration(r.runID, i)
	r.logger.Info(fmt.Sprintf("Iteration %d started.", i))

	r.execute(ctx, it)

	it.Finish()
	r.record(ctx, it)
	r.logger.Info(fmt.Sprintf("Iteration %d completed.", i))
	return it
}

func (r *Runner) execute(ctx context.Context, it *model.Iteration) {
	session, err := r.launcher.Launch(ctx)
	if err != nil {
		it.Fail(model.NewStageError(model.KindSession, it.Index, "launch browser", err))
		r.logFailure(it)
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("failed to close browser session",
				"iteration", it.Index,
				"error", err,
			)
		}
	}()

	if err := r.factory(session).Execute(ctx, it); err != nil {
		r.logFailure(it)
	}
}

func (r *Runner) logFailure(it *model.Iteration) {
	args := []any{"run_id", r.runID}
	if kind, ok := model.KindOf(it.Err); ok {
		args = append(args, "kind", kind.String())
	}
	r.logger.Error(fmt.Sprintf("Error in iteration %d: %s", it.Index, it.Err.Error()), args...)
}

// record hands the finished iteration to the recorder. A failing recorder
// does not change the outcome of the iteration.
func (r *Runner) record(ctx context.Context, it *model.Iteration) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.SaveSample(ctx, model.NewSample(it)); err != nil {
		r.logger.Warn("failed to record iteration in history",
			"iteration", it.Index,
			"error", err,
		)
	}
}

// Iterations returns the finished iterations of the last Run in index order.
func (r *Runner) Iterations() []*model.Iteration {
	return r.iterations
}

// Summary converts the finished iterations into a RunSummary.
func (r *Runner) Summary() *model.RunSummary {
	summary := &model.RunSummary{
		RunID:   r.runID,
		Samples: make([]model.Sample, 0, len(r.iterations)),
	}
	for _, it := range r.iterations {
		summary.Samples = append(summary.Samples, model.NewSample(it))
	}
	return summary
}
