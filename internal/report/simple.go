package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/fpprobe/internal/model"
)

// SimpleWriter outputs a plain text run summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds artifact paths to every iteration.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary as text.
func (w *SimpleWriter) Write(run *model.RunSummary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Run %s: %d succeeded, %d failed\n", run.RunID, run.SucceededCount(), run.FailedCount()))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	for _, s := range run.Samples {
		w.writeSample(&sb, s)
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeSample(sb *strings.Builder, s model.Sample) {
	if !s.Succeeded() {
		sb.WriteString(fmt.Sprintf("  [%d] FAILED (%s): %s\n", s.Index, s.ErrorKind, s.ErrorMessage))
	} else {
		sb.WriteString(fmt.Sprintf("  [%d] trustScore=%s lies=%s bot=%s fingerprint=%s\n",
			s.Index,
			formatValue(s.TrustScore),
			formatValue(s.Lies),
			formatValue(s.Bot),
			truncateString(formatValue(s.Fingerprint), 24),
		))
	}

	if !w.verbose {
		return
	}
	for _, p := range []string{s.ScreenshotPath, s.DocumentPath, s.OutputPath} {
		if p != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", p))
		}
	}
}
