package config

import "errors"

// Configuration validation errors returned by Config.Validate and the
// file loader. Callers can match them with errors.Is.
var (
	// ErrInvalidIterationCount is returned when the iteration count is not positive.
	ErrInvalidIterationCount = errors.New("invalid iteration count: must be positive")

	// ErrEmptyTargetURL is returned when no target page is configured.
	ErrEmptyTargetURL = errors.New("target URL must not be empty")

	// ErrEmptyEndpoint is returned when no verification endpoint is configured.
	ErrEmptyEndpoint = errors.New("verification endpoint must not be empty")

	// ErrEmptyUserAgent is returned when the browser identity is empty.
	ErrEmptyUserAgent = errors.New("user agent must not be empty")

	// ErrInvalidPayload is returned when the request payload is not
	// exactly three non-empty tokens.
	ErrInvalidPayload = errors.New("invalid request payload: expected exactly three non-empty tokens")

	// ErrInvalidNavigationTimeout is returned when the navigation timeout is not positive.
	ErrInvalidNavigationTimeout = errors.New("invalid navigation timeout: must be positive")

	// ErrInvalidQuietWindow is returned when the quiescence window is not
	// positive or does not fit inside the navigation timeout.
	ErrInvalidQuietWindow = errors.New("invalid quiet window: must be positive and shorter than the navigation timeout")

	// ErrEmptyLogFile is returned when no log destination is configured.
	ErrEmptyLogFile = errors.New("log file must not be empty")

	// ErrUnknownPaperSize is returned for paper formats fpprobe does not know.
	ErrUnknownPaperSize = errors.New("unknown paper size: use A3, A4, Letter or Legal")

	// ErrEmptyDBDir is returned when history is enabled without a directory.
	ErrEmptyDBDir = errors.New("history directory must not be empty when history is enabled")
)
