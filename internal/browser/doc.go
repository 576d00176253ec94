// Package browser manages the headless Chrome sessions used by the probe.
//
// A Launcher creates one Session per iteration. A Session is a single
// browser tab with its own browser process; it is never shared between
// iterations and must be released with Close on every path. Close is
// idempotent, so a deferred Close is always safe.
//
// ChromeLauncher implements Launcher with chromedp. Navigation waits for
// the load event and then for network quiescence: no requests in flight
// for the configured quiet window.
//
// Consumers depend on the Launcher and Session interfaces so the pipeline
// can be tested without a browser.
package browser
