// Package report writes probe results.
//
// This package contains:
//   - WriteRecordFile: the per-iteration output_<i>.json document
//   - SimpleWriter: a plain text run summary for the terminal
//   - JSONWriter: run summaries as JSON for tool integration
//   - MarkdownWriter: run summaries as Markdown for sharing
//
// Summary writers implement the Writer interface so they can be used
// interchangeably and composed with MultiWriter.
package report
