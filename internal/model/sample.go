package model

import (
	"encoding/json"
	"time"
)

// Sample is the stored form of a finished iteration. Values of the output
// record are kept as raw JSON; they are nil when the iteration failed
// before verification.
type Sample struct {
	RunID      string    `json:"run_id"`
	Index      int       `json:"index"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	State      string    `json:"state"`

	// ErrorKind is the Kind name of the failure, empty on success.
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	TrustScore  json.RawMessage `json:"trust_score,omitempty"`
	Lies        json.RawMessage `json:"lies,omitempty"`
	Bot         json.RawMessage `json:"bot,omitempty"`
	Fingerprint json.RawMessage `json:"fingerprint,omitempty"`

	ScreenshotPath string `json:"screenshot_path,omitempty"`
	DocumentPath   string `json:"document_path,omitempty"`
	OutputPath     string `json:"output_path,omitempty"`
}

// NewSample converts a finished iteration into a Sample.
func NewSample(it *Iteration) Sample {
	s := Sample{
		RunID:          it.RunID,
		Index:          it.Index,
		StartedAt:      it.StartedAt,
		FinishedAt:     it.FinishedAt,
		State:          it.State.String(),
		ScreenshotPath: it.Artifacts.ScreenshotPath,
		DocumentPath:   it.Artifacts.DocumentPath,
		OutputPath:     it.OutputPath,
	}
	if it.Err != nil {
		s.ErrorMessage = it.Err.Error()
		if kind, ok := KindOf(it.Err); ok {
			s.ErrorKind = kind.String()
		}
	}
	if it.Response != nil {
		s.TrustScore = it.Response.Score
		s.Lies = it.Response.HasLied
		s.Bot = it.Response.Bot
		s.Fingerprint = it.Response.Fingerprint
	}
	return s
}

// Succeeded reports whether the sample completed without error.
func (s Sample) Succeeded() bool {
	return s.ErrorMessage == "" && s.State == StateCompleted.String()
}

// RunSummary groups the samples of one run in index order.
type RunSummary struct {
	RunID   string   `json:"run_id"`
	Samples []Sample `json:"samples"`
}

// StartedAt is the start time of the first sample.
func (r *RunSummary) StartedAt() time.Time {
	if len(r.Samples) == 0 {
		return time.Time{}
	}
	return r.Samples[0].StartedAt
}

// SucceededCount returns the number of successful samples.
func (r *RunSummary) SucceededCount() int {
	n := 0
	for _, s := range r.Samples {
		if s.Succeeded() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed samples.
func (r *RunSummary) FailedCount() int {
	return len(r.Samples) - r.SucceededCount()
}
