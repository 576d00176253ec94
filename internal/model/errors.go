package model

import (
	"errors"
	"fmt"
)

// Kind classifies an iteration failure by the stage that produced it.
type Kind int

const (
	// KindSession covers browser launch and identity setup.
	KindSession Kind = iota + 1

	// KindNavigation covers page load, quiescence wait and timeouts.
	KindNavigation

	// KindCapture covers screenshot and PDF generation or writing.
	KindCapture

	// KindVerification covers the in-page request and response parsing.
	KindVerification

	// KindPersistence covers writing the output record.
	KindPersistence
)

// Sentinel errors, one per Kind. A StageError matches the sentinel of its
// kind with errors.Is.
var (
	ErrSession             = errors.New("browser session error")
	ErrNavigation          = errors.New("navigation error")
	ErrCapture             = errors.New("capture error")
	ErrVerificationRequest = errors.New("verification request error")
	ErrPersistence         = errors.New("persistence error")
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindNavigation:
		return "navigation"
	case KindCapture:
		return "capture"
	case KindVerification:
		return "verification"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Sentinel returns the sentinel error of k, or nil for an unknown kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindSession:
		return ErrSession
	case KindNavigation:
		return ErrNavigation
	case KindCapture:
		return ErrCapture
	case KindVerification:
		return ErrVerificationRequest
	case KindPersistence:
		return ErrPersistence
	default:
		return nil
	}
}

// StageError is the error returned by a pipeline stage.
type StageError struct {
	Kind      Kind
	Iteration int
	// Op names the failed operation, e.g. "screenshot".
	Op  string
	Err error
}

// NewStageError wraps err as a failure of op in iteration i.
func NewStageError(kind Kind, i int, op string, err error) *StageError {
	return &StageError{Kind: kind, Iteration: i, Op: op, Err: err}
}

// Error returns "<op>: <cause>", or the sentinel text when there is no cause.
func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind.Sentinel())
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *StageError) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first StageError in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
