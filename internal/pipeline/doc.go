// Package pipeline runs probe iterations.
//
// An iteration passes through five steps in a fixed order: identity,
// navigate, capture, verify and persist. Each step receives the current
// model.Iteration and advances its state. The first failing step stops the
// pipeline and its error is recorded on the iteration.
//
// Runner executes the configured number of iterations strictly one after
// another. Every iteration launches its own browser session and builds a
// fresh pipeline around it; the session is closed on every path before the
// next iteration starts. Iteration failures are logged and never returned.
package pipeline
