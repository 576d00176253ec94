package model

import (
	"errors"
	"testing"
)

// TestNewSample tests conversion of finished iterations.
func TestNewSample(t *testing.T) {
	t.Parallel()

	t.Run("successful iteration", func(t *testing.T) {
		t.Parallel()

		resp, err := ParseVerificationResponse([]byte(`{"score":55,"hasLied":false,"bot":false,"fingerprint":"ff"}`))
		if err != nil {
			t.Fatal(err)
		}
		it := NewIteration("run-1", 1)
		it.Artifacts = Artifacts{ScreenshotPath: "screenshot_1.png", DocumentPath: "webpage_1.pdf"}
		it.Response = resp
		it.OutputPath = "output_1.json"
		it.Finish()

		s := NewSample(it)
		if !s.Succeeded() {
			t.Errorf("expected success, got %+v", s)
		}
		if string(s.TrustScore) != "55" || string(s.Fingerprint) != `"ff"` {
			t.Errorf("unexpected values %s %s", s.TrustScore, s.Fingerprint)
		}
		if s.State != "completed" || s.OutputPath != "output_1.json" {
			t.Errorf("unexpected sample %+v", s)
		}
	})

	t.Run("failed iteration", func(t *testing.T) {
		t.Parallel()

		it := NewIteration("run-1", 2)
		it.Fail(NewStageError(KindNavigation, 2, "navigate", errors.New("timeout")))
		it.Finish()

		s := NewSample(it)
		if s.Succeeded() {
			t.Error("expected failure")
		}
		if s.ErrorKind != "navigation" || s.ErrorMessage != "navigate: timeout" {
			t.Errorf("unexpected error fields %q %q", s.ErrorKind, s.ErrorMessage)
		}
		if s.TrustScore != nil {
			t.Error("expected no values")
		}
	})
}

// TestRunSummary tests aggregate counts.
func TestRunSummary(t *testing.T) {
	t.Parallel()

	r := &RunSummary{RunID: "r", Samples: []Sample{
		{Index: 1, State: "completed"},
		{Index: 2, State: "failed", ErrorMessage: "x"},
		{Index: 3, State: "completed"},
	}}
	if r.SucceededCount() != 2 || r.FailedCount() != 1 {
		t.Errorf("unexpected counts %d/%d", r.SucceededCount(), r.FailedCount())
	}
	if !(&RunSummary{}).StartedAt().IsZero() {
		t.Error("expected zero start for empty run")
	}
}
