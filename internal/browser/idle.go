package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// idleTracker counts in-flight network requests of a tab and remembers when
// the request set last changed.
type idleTracker struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
	}
}

// handle updates the tracker from a CDP event. Unrelated events are ignored.
func (t *idleTracker) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.started(e.RequestID)
	case *network.EventLoadingFinished:
		t.done(e.RequestID)
	case *network.EventLoadingFailed:
		t.done(e.RequestID)
	}
}

func (t *idleTracker) started(id network.RequestID) {
	t.mu.Lock()
	t.inflight[id] = struct{}{}
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

func (t *idleTracker) done(id network.RequestID) {
	t.mu.Lock()
	delete(t.inflight, id)
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

func (t *idleTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// reset forgets requests left over from a previous document.
func (t *idleTracker) reset() {
	t.mu.Lock()
	t.inflight = make(map[network.RequestID]struct{})
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

// quietSince returns the number of in-flight requests and the time of the
// last request start or end, whichever is later than since.
func (t *idleTracker) quietSince(since time.Time) (int, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last := t.lastActivity
	if since.After(last) {
		last = since
	}
	return len(t.inflight), last
}

// wait polls until no request has started or ended for quiet and none is in
// flight, or ctx ends. The window never starts before the call.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	interval := quiet / 5
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			if n := t.count(); n > 0 {
				return fmt.Errorf("%w: %d requests in flight: %w", ErrNetworkNotIdle, n, ctx.Err())
			}
			return ctx.Err()
		case <-ticker.C:
			n, last := t.quietSince(start)
			if n == 0 && time.Since(last) >= quiet {
				return nil
			}
		}
	}
}
