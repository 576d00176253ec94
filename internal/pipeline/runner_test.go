package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/fpprobe/internal/browser"
	"github.com/nao1215/fpprobe/internal/config"
	"github.com/nao1215/fpprobe/internal/log"
	"github.com/nao1215/fpprobe/internal/model"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z - (.+)$`)

// logMessages returns the message part of every log line.
func logMessages(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()

	var msgs []string
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("malformed log line %q", line)
		}
		msgs = append(msgs, m[1])
	}
	return msgs
}

func newTestConfig(dir string) *config.Config {
	cfg := config.NewConfig()
	cfg.OutputDir = dir
	return cfg
}

type fakeRecorder struct {
	mu      sync.Mutex
	samples []model.Sample
	err     error
}

func (r *fakeRecorder) SaveSample(_ context.Context, s model.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	return r.err
}

// TestRunner_AllSucceed tests a run in which every iteration succeeds.
func TestRunner_AllSucceed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sessions := []*fakeSession{{}, {}, {}}
	launcher := newFakeLauncher(sessions...)
	var buf bytes.Buffer
	rec := &fakeRecorder{}

	r := NewRunner(newTestConfig(dir), launcher,
		WithRunnerLogger(log.New(&buf, nil, false)),
		WithRecorder(rec),
		WithRunID("run-1"),
	)
	r.Run(context.Background())

	for i := 1; i <= 3; i++ {
		for _, name := range []string{"screenshot_%d.png", "webpage_%d.pdf", "output_%d.json"} {
			path := filepath.Join(dir, fmt.Sprintf(name, i))
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing %s: %v", path, err)
			}
		}
	}

	want := []string{
		"Iteration 1 started.",
		"Screenshot for iteration 1 saved.",
		"PDF for iteration 1 created.",
		"Data for iteration 1 saved.",
		"Iteration 1 completed.",
		"Iteration 2 started.",
		"Screenshot for iteration 2 saved.",
		"PDF for iteration 2 created.",
		"Data for iteration 2 saved.",
		"Iteration 2 completed.",
		"Iteration 3 started.",
		"Screenshot for iteration 3 saved.",
		"PDF for iteration 3 created.",
		"Data for iteration 3 saved.",
		"Iteration 3 completed.",
	}
	got := logMessages(t, &buf)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected log lines:\n%s", strings.Join(got, "\n"))
	}

	wantCalls := "ua,navigate,screenshot,pdf,evaluate,close"
	for i, s := range sessions {
		if s.closed != 1 {
			t.Errorf("session %d closed %d times", i+1, s.closed)
		}
		if strings.Join(s.calls, ",") != wantCalls {
			t.Errorf("session %d calls %v", i+1, s.calls)
		}
	}

	summary := r.Summary()
	if summary.RunID != "run-1" || summary.SucceededCount() != 3 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(rec.samples) != 3 || rec.samples[2].Index != 3 || rec.samples[0].RunID != "run-1" {
		t.Errorf("unexpected recorded samples %+v", rec.samples)
	}
}

// TestRunner_IsolatesFailures tests that a failing iteration does not stop
// the following ones and leaves no output record.
func TestRunner_IsolatesFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	failing := &fakeSession{navErr: context.DeadlineExceeded}
	launcher := newFakeLauncher(&fakeSession{}, failing, &fakeSession{})
	var buf bytes.Buffer

	r := NewRunner(newTestConfig(dir), launcher, WithRunnerLogger(log.New(&buf, nil, false)))
	r.Run(context.Background())

	if _, err := os.Stat(filepath.Join(dir, "output_2.json")); !os.IsNotExist(err) {
		t.Error("failed iteration must not write output_2.json")
	}
	if _, err := os.Stat(filepath.Join(dir, "screenshot_2.png")); !os.IsNotExist(err) {
		t.Error("failed navigation must not capture")
	}
	if _, err := os.Stat(filepath.Join(dir, "output_3.json")); err != nil {
		t.Errorf("iteration 3 must still run: %v", err)
	}
	if failing.closed != 1 {
		t.Errorf("failed session closed %d times", failing.closed)
	}
	if strings.Join(failing.calls, ",") != "ua,navigate,close" {
		t.Errorf("unexpected calls %v", failing.calls)
	}

	msgs := logMessages(t, &buf)
	joined := strings.Join(msgs, "\n")
	if !strings.Contains(joined, "Iteration 2 started.\nError in iteration 2: navigate: ") {
		t.Errorf("expected error line after start, got:\n%s", joined)
	}
	if !strings.Contains(joined, "context deadline exceeded\nIteration 2 completed.\nIteration 3 started.") {
		t.Errorf("expected completion after error, got:\n%s", joined)
	}

	its := r.Iterations()
	if len(its) != 3 {
		t.Fatalf("expected 3 iterations, got %d", len(its))
	}
	if its[1].State != model.StateCompleted || !errors.Is(its[1].Err, model.ErrNavigation) {
		t.Errorf("unexpected iteration 2 %+v", its[1])
	}
	if !its[0].Succeeded() || !its[2].Succeeded() {
		t.Error("iterations 1 and 3 should succeed")
	}
	if r.Summary().FailedCount() != 1 {
		t.Errorf("expected 1 failure, got %d", r.Summary().FailedCount())
	}
}

// TestRunner_LaunchFailure tests an iteration whose session never starts.
func TestRunner_LaunchFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := newTestConfig(dir)
	cfg.IterationCount = 2
	second := &fakeSession{}
	launcher := newFakeLauncher(&fakeSession{}, second)
	launcher.launchErr[1] = errors.New("chrome not found")
	var buf bytes.Buffer

	r := NewRunner(cfg, launcher, WithRunnerLogger(log.New(&buf, nil, false)))
	r.Run(context.Background())

	its := r.Iterations()
	if !errors.Is(its[0].Err, model.ErrSession) {
		t.Errorf("expected session error, got %v", its[0].Err)
	}
	if !its[1].Succeeded() || second.closed != 1 {
		t.Errorf("second iteration should succeed and close once: %v, %d", its[1].Err, second.closed)
	}

	msgs := logMessages(t, &buf)
	if msgs[1] != "Error in iteration 1: launch browser: chrome not found" {
		t.Errorf("unexpected error line %q", msgs[1])
	}
	if msgs[2] != "Iteration 1 completed." {
		t.Errorf("expected completion, got %q", msgs[2])
	}
}

// TestRunner_VerificationFailures tests request and response errors.
func TestRunner_VerificationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session *fakeSession
		want    error
	}{
		{"request failure", &fakeSession{evalErr: errors.New("TypeError: Failed to fetch")}, model.ErrVerificationRequest},
		{"malformed body", &fakeSession{body: "Bad Gateway"}, model.ErrMalformedResponse},
		{"missing field", &fakeSession{body: `{"score":1,"hasLied":false,"bot":false}`}, model.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			cfg := newTestConfig(dir)
			cfg.IterationCount = 1
			var buf bytes.Buffer

			r := NewRunner(cfg, newFakeLauncher(tt.session), WithRunnerLogger(log.New(&buf, nil, false)))
			r.Run(context.Background())

			it := r.Iterations()[0]
			if !errors.Is(it.Err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, it.Err)
			}
			if _, err := os.Stat(filepath.Join(dir, "output_1.json")); !os.IsNotExist(err) {
				t.Error("no output record expected")
			}
			if _, err := os.Stat(filepath.Join(dir, "webpage_1.pdf")); err != nil {
				t.Errorf("capture should have happened: %v", err)
			}
			if tt.session.closed != 1 {
				t.Errorf("session closed %d times", tt.session.closed)
			}
		})
	}
}

// TestRunner_CloseAndRecorderErrors tests that cleanup and history errors
// do not change the iteration outcome.
func TestRunner_CloseAndRecorderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := newTestConfig(dir)
	cfg.IterationCount = 1
	session := &fakeSession{closeErr: errors.New("already gone")}
	var file, console bytes.Buffer

	r := NewRunner(cfg, newFakeLauncher(session),
		WithRunnerLogger(log.New(&file, &console, false)),
		WithRecorder(&fakeRecorder{err: errors.New("database is locked")}),
	)
	r.Run(context.Background())

	if !r.Iterations()[0].Succeeded() {
		t.Errorf("iteration should succeed: %v", r.Iterations()[0].Err)
	}
	if !strings.Contains(console.String(), "failed to close browser session") {
		t.Error("expected close warning on console")
	}
	if !strings.Contains(console.String(), "failed to record iteration in history") {
		t.Error("expected history warning on console")
	}
}

// TestRunner_CustomFactory tests WithFactory.
func TestRunner_CustomFactory(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t.TempDir())
	cfg.IterationCount = 2
	built := 0
	step := &mockStep{name: "only"}

	r := NewRunner(cfg, newFakeLauncher(&fakeSession{}, &fakeSession{}),
		WithRunnerLogger(log.New(nil, nil, false)),
		WithFactory(func(browser.Session) *Pipeline {
			built++
			p := New()
			p.AddStep(step)
			return p
		}),
	)
	r.Run(context.Background())

	if built != 2 || step.callCount != 2 {
		t.Errorf("expected a fresh pipeline per iteration, built=%d calls=%d", built, step.callCount)
	}
	if r.RunID() == "" {
		t.Error("expected generated run ID")
	}
}
