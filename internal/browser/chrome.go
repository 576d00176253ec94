package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/fpprobe/internal/config"
)

// ChromeLauncher starts a dedicated Chrome process per session.
type ChromeLauncher struct {
	execPath          string
	headless          bool
	noSandbox         bool
	navigationTimeout time.Duration
	quietWindow       time.Duration
	logger            *slog.Logger
}

// Option configures a ChromeLauncher.
type Option func(*ChromeLauncher)

// WithLogger sets the logger that receives chromedp diagnostics at Debug.
func WithLogger(logger *slog.Logger) Option {
	return func(l *ChromeLauncher) {
		l.logger = logger
	}
}

// NewChromeLauncher creates a launcher from the browser settings of cfg.
func NewChromeLauncher(cfg *config.Config, opts ...Option) *ChromeLauncher {
	l := &ChromeLauncher{
		execPath:          cfg.ChromePath,
		headless:          cfg.Headless,
		noSandbox:         cfg.NoSandbox,
		navigationTimeout: cfg.NavigationTimeout,
		quietWindow:       cfg.QuietWindow,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// allocatorOptions returns the exec allocator flags for the launcher.
func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", l.headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if l.execPath != "" {
		opts = append(opts, chromedp.ExecPath(l.execPath))
	}
	return opts
}

// Launch starts Chrome, opens a tab and enables network tracking.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)

	debugf := func(format string, args ...any) {
		l.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(debugf),
		chromedp.WithErrorf(debugf),
	)

	s := &chromeSession{
		ctx:               tabCtx,
		cancel:            tabCancel,
		allocCancel:       allocCancel,
		tracker:           newIdleTracker(),
		navigationTimeout: l.navigationTimeout,
		quietWindow:       l.quietWindow,
	}
	chromedp.ListenTarget(tabCtx, s.tracker.handle)

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	l.logger.Debug("browser session started", "headless", l.headless)
	return s, nil
}

// chromeSession is a Session backed by a chromedp tab context.
type chromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	tracker     *idleTracker

	navigationTimeout time.Duration
	quietWindow       time.Duration

	closeOnce sync.Once
	closeErr  error
	closed    bool
	mu        sync.Mutex
}

// runContext derives a context from the tab that is also cancelled when
// ctx ends. A positive timeout bounds it further.
func (s *chromeSession) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, nil, ErrSessionClosed
	}

	var (
		rctx   context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		rctx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		rctx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return rctx, func() {
		stop()
		cancel()
	}, nil
}

// SetUserAgent overrides the user agent of the tab.
func (s *chromeSession) SetUserAgent(ctx context.Context, ua string) error {
	if strings.TrimSpace(ua) == "" {
		return ErrEmptyUserAgent
	}
	rctx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return err
	}
	defer cancel()

	return chromedp.Run(rctx, emulation.SetUserAgentOverride(ua))
}

// Navigate loads url and waits until the network has been idle for the
// quiet window. Both phases share the navigation timeout.
func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	rctx, cancel, err := s.runContext(ctx, s.navigationTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	s.tracker.reset()
	if err := chromedp.Run(rctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	if err := s.tracker.wait(rctx, s.quietWindow); err != nil {
		return fmt.Errorf("failed waiting for %s to settle: %w", url, err)
	}
	return nil
}

// FullScreenshot captures the whole page as PNG.
func (s *chromeSession) FullScreenshot(ctx context.Context) ([]byte, error) {
	rctx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var buf []byte
	// Quality 100 selects PNG encoding.
	if err := chromedp.Run(rctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

// PrintPDF prints the page with the given paper dimensions.
func (s *chromeSession) PrintPDF(ctx context.Context, paper config.PaperSize) ([]byte, error) {
	rctx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var buf []byte
	err = chromedp.Run(rctx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(paper.Width).
			WithPaperHeight(paper.Height).
			Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Evaluate runs expression and decodes its awaited result into out.
func (s *chromeSession) Evaluate(ctx context.Context, expression string, out any) error {
	rctx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return err
	}
	defer cancel()

	return chromedp.Run(rctx, chromedp.Evaluate(expression, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
}

// Close shuts the browser down once.
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		err := chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("failed to close chrome: %w", err)
		}
	})
	return s.closeErr
}
