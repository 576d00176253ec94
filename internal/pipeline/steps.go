package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/fpprobe/internal/artifact"
	"github.com/nao1215/fpprobe/internal/browser"
	"github.com/nao1215/fpprobe/internal/model"
	"github.com/nao1215/fpprobe/internal/report"
	"github.com/nao1215/fpprobe/internal/verify"
)

// errNoResponse is returned by PersistStep when no verification response
// is attached to the iteration.
var errNoResponse = errors.New("no verification response to persist")

// IdentityStep sets the user agent of the page before navigation.
type IdentityStep struct {
	session   browser.Session
	userAgent string
}

// NewIdentityStep creates a step that applies userAgent to session.
func NewIdentityStep(session browser.Session, userAgent string) *IdentityStep {
	return &IdentityStep{session: session, userAgent: userAgent}
}

// Name returns the step name.
func (s *IdentityStep) Name() string {
	return "identity"
}

// Kind returns the failure kind reported for this step.
func (s *IdentityStep) Kind() model.Kind {
	return model.KindSession
}

// Do executes the identity step.
func (s *IdentityStep) Do(ctx context.Context, it *model.Iteration) error {
	if err := s.session.SetUserAgent(ctx, s.userAgent); err != nil {
		return model.NewStageError(model.KindSession, it.Index, "set user agent", err)
	}
	return nil
}

// NavigateStep loads the target page and waits for network quiescence.
type NavigateStep struct {
	session browser.Session
	url     string
}

// NewNavigateStep creates a step that navigates session to url.
func NewNavigateStep(session browser.Session, url string) *NavigateStep {
	return &NavigateStep{session: session, url: url}
}

// Name returns the step name.
func (s *NavigateStep) Name() string {
	return "navigate"
}

// Kind returns the failure kind reported for this step.
func (s *NavigateStep) Kind() model.Kind {
	return model.KindNavigation
}

// Do executes the navigation step.
func (s *NavigateStep) Do(ctx context.Context, it *model.Iteration) error {
	if err := s.session.Navigate(ctx, s.url); err != nil {
		return model.NewStageError(model.KindNavigation, it.Index, "navigate", err)
	}
	it.State = model.StateNavigated
	return nil
}

// CaptureStep writes the screenshot and the PDF of the loaded page.
type CaptureStep struct {
	capturer *artifact.Capturer
	page     artifact.Page
}

// NewCaptureStep creates a capture step.
func NewCaptureStep(capturer *artifact.Capturer, page artifact.Page) *CaptureStep {
	return &CaptureStep{capturer: capturer, page: page}
}

// Name returns the step name.
func (s *CaptureStep) Name() string {
	return "capture"
}

// Kind returns the failure kind reported for this step.
func (s *CaptureStep) Kind() model.Kind {
	return model.KindCapture
}

// Do executes the capture step. Paths of files already written are kept
// on the iteration even when a later capture fails.
func (s *CaptureStep) Do(ctx context.Context, it *model.Iteration) error {
	arts, err := s.capturer.Capture(ctx, s.page, it.Index)
	it.Artifacts = arts
	if err != nil {
		return model.NewStageError(model.KindCapture, it.Index, "capture", err)
	}
	it.State = model.StateCaptured
	return nil
}

// VerifyStep sends the verification request from inside the page.
type VerifyStep struct {
	client *verify.Client
	page   verify.Evaluator
}

// NewVerifyStep creates a verification step.
func NewVerifyStep(client *verify.Client, page verify.Evaluator) *VerifyStep {
	return &VerifyStep{client: client, page: page}
}

// Name returns the step name.
func (s *VerifyStep) Name() string {
	return "verify"
}

// Kind returns the failure kind reported for this step.
func (s *VerifyStep) Kind() model.Kind {
	return model.KindVerification
}

// Do executes the verification step.
func (s *VerifyStep) Do(ctx context.Context, it *model.Iteration) error {
	resp, err := s.client.Verify(ctx, s.page)
	if err != nil {
		return model.NewStageError(model.KindVerification, it.Index, "verify", err)
	}
	it.Response = resp
	it.State = model.StateVerified
	return nil
}

// PersistStep writes output_<i>.json from the verification response.
type PersistStep struct {
	dir    string
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a step writing records into dir.
func NewPersistStep(dir string, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Kind returns the failure kind reported for this step.
func (s *PersistStep) Kind() model.Kind {
	return model.KindPersistence
}

// Do executes the persist step.
func (s *PersistStep) Do(_ context.Context, it *model.Iteration) error {
	if it.Response == nil {
		return model.NewStageError(model.KindPersistence, it.Index, "persist", errNoResponse)
	}

	rec := it.Response.Record()
	path, err := report.WriteRecordFile(s.dir, it.Index, rec)
	if err != nil {
		return model.NewStageError(model.KindPersistence, it.Index, "persist", err)
	}

	it.Record = &rec
	it.OutputPath = path
	it.State = model.StatePersisted
	s.logger.Info(fmt.Sprintf("Data for iteration %d saved.", it.Index), "path", path)
	return nil
}
