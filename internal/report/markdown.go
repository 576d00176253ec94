package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/fpprobe/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(run *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeOutcome(md, run)
	w.writeSamples(md, run)
	w.writeErrors(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.RunSummary) {
	md.H1("fpprobe Run")
	md.PlainText("")

	started := "-"
	if t := run.StartedAt(); !t.IsZero() {
		started = t.Format("2006-01-02 15:04:05 MST")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + run.RunID + "`"},
			{"Started", started},
			{"Iterations", strconv.Itoa(len(run.Samples))},
			{"Succeeded", strconv.Itoa(run.SucceededCount())},
			{"Failed", strconv.Itoa(run.FailedCount())},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, run *model.RunSummary) {
	if len(run.Samples) == 0 {
		md.Note("This run has no recorded iterations.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Iteration Outcome"),
		piechart.WithShowData(true),
	)
	if n := run.SucceededCount(); n > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(n))
	}
	if n := run.FailedCount(); n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	switch {
	case run.FailedCount() == len(run.Samples):
		md.Cautionf("All %d iterations failed.", len(run.Samples))
	case run.FailedCount() > 0:
		md.Warningf("%d of %d iterations failed.", run.FailedCount(), len(run.Samples))
	default:
		md.Tip("All iterations completed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSamples(md *markdown.Markdown, run *model.RunSummary) {
	md.H2("Iterations")
	md.PlainText("")

	if len(run.Samples) == 0 {
		md.PlainText("No iterations recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Samples))
	for i, s := range run.Samples {
		rows[i] = []string{
			strconv.Itoa(s.Index),
			s.State,
			formatValue(s.TrustScore),
			formatValue(s.Lies),
			formatValue(s.Bot),
			"`" + truncateString(formatValue(s.Fingerprint), 24) + "`",
			errorCell(s),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "State", "Trust Score", "Lies", "Bot", "Fingerprint", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// errorCell summarizes the failure of s for a table cell. The full message
// is in the Errors section.
func errorCell(s model.Sample) string {
	if s.ErrorMessage == "" {
		return "-"
	}
	cell := s.ErrorMessage
	if s.ErrorKind != "" {
		cell = s.ErrorKind + ": " + cell
	}
	return strings.ReplaceAll(truncateString(cell, 60), "|", `\|`)
}

func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, run *model.RunSummary) {
	if run.FailedCount() == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")
	for _, s := range run.Samples {
		if s.ErrorMessage == "" {
			continue
		}
		kind := s.ErrorKind
		if kind == "" {
			kind = "unknown"
		}
		md.Details("Iteration "+strconv.Itoa(s.Index)+" ("+kind+")", s.ErrorMessage)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by fpprobe*")
}
