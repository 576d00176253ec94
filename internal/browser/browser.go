package browser

import (
	"context"
	"errors"

	"github.com/nao1215/fpprobe/internal/config"
)

var (
	// ErrSessionClosed is returned by Session methods after Close.
	ErrSessionClosed = errors.New("browser session is closed")

	// ErrEmptyUserAgent is returned when SetUserAgent receives an empty string.
	ErrEmptyUserAgent = errors.New("user agent must not be empty")

	// ErrNetworkNotIdle is returned when the page never reached network
	// quiescence before the navigation deadline.
	ErrNetworkNotIdle = errors.New("network did not become idle before the navigation deadline")
)

// Launcher acquires browser sessions.
type Launcher interface {
	// Launch starts a fresh session. The caller owns it and must Close it.
	Launch(ctx context.Context) (Session, error)
}

// Session is one browser tab.
type Session interface {
	// SetUserAgent sets the identity sent by the page and its requests.
	SetUserAgent(ctx context.Context, ua string) error

	// Navigate loads url and waits for network quiescence.
	Navigate(ctx context.Context, url string) error

	// FullScreenshot returns a PNG of the whole page.
	FullScreenshot(ctx context.Context) ([]byte, error)

	// PrintPDF returns the page rendered as a PDF document.
	PrintPDF(ctx context.Context, paper config.PaperSize) ([]byte, error)

	// Evaluate runs expression in the page, awaits a returned promise and
	// decodes the JSON-serializable result into out.
	Evaluate(ctx context.Context, expression string, out any) error

	// Close releases the tab and the browser process. It is safe to call
	// more than once; later calls return the first result.
	Close() error
}
