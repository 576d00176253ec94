package model

import (
	"fmt"
	"strings"
	"time"
)

// State is the position of an iteration in the probe pipeline.
type State int

const (
	// StateStarted means a session was requested but nothing ran yet.
	StateStarted State = iota

	// StateNavigated means the identity is set and the page reached network quiescence.
	StateNavigated

	// StateCaptured means the screenshot and the PDF were written.
	StateCaptured

	// StateVerified means the verification response was received and parsed.
	StateVerified

	// StatePersisted means output_<i>.json was written.
	StatePersisted

	// StateFailed means a stage returned an error. No later stage ran.
	StateFailed

	// StateCompleted means the iteration finished and its session was released.
	// Failed iterations end here too and keep their error in Err.
	StateCompleted
)

var stateNames = map[State]string{
	StateStarted:   "started",
	StateNavigated: "navigated",
	StateCaptured:  "captured",
	StateVerified:  "verified",
	StatePersisted: "persisted",
	StateFailed:    "failed",
	StateCompleted: "completed",
}

// String returns the lower-case state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseState converts a name produced by String back to a State.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return StateStarted, fmt.Errorf("unknown iteration state %q", name)
}

// Artifacts are the files captured from the rendered page.
type Artifacts struct {
	// ScreenshotPath is screenshot_<i>.png.
	ScreenshotPath string `json:"screenshot_path,omitempty"`

	// DocumentPath is webpage_<i>.pdf.
	DocumentPath string `json:"document_path,omitempty"`
}

// Iteration carries one pass of the probe through the pipeline.
// Stages fill it in order; a failed stage sets Err and State to StateFailed
// until Finish moves it to StateCompleted.
type Iteration struct {
	// Index is the 1-based iteration number used in every file name.
	Index int `json:"index"`

	// RunID groups the iterations of one invocation.
	RunID string `json:"run_id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	State State `json:"-"`

	Artifacts Artifacts `json:"artifacts"`

	// Response is set once the verification request succeeded.
	Response *VerificationResponse `json:"-"`

	// Record is set once the output record was written.
	Record *OutputRecord `json:"record,omitempty"`

	// OutputPath is output_<i>.json.
	OutputPath string `json:"output_path,omitempty"`

	// Err is the error that stopped the iteration, if any.
	Err error `json:"-"`
}

// NewIteration creates an iteration in StateStarted.
func NewIteration(runID string, index int) *Iteration {
	return &Iteration{
		Index:     index,
		RunID:     runID,
		StartedAt: time.Now(),
		State:     StateStarted,
	}
}

// Fail records err and moves the iteration to StateFailed.
func (it *Iteration) Fail(err error) {
	it.Err = err
	it.State = StateFailed
}

// Finish stamps the end time and moves the iteration to StateCompleted.
func (it *Iteration) Finish() {
	it.FinishedAt = time.Now()
	it.State = StateCompleted
}

// Succeeded reports whether the iteration ended without error.
func (it *Iteration) Succeeded() bool {
	return it.Err == nil && it.State != StateFailed
}

// Duration is the wall time between start and finish.
func (it *Iteration) Duration() time.Duration {
	if it.FinishedAt.IsZero() {
		return 0
	}
	return it.FinishedAt.Sub(it.StartedAt)
}
