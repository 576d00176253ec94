package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/fpprobe/internal/model"
)

// createTestRun creates a run with one failed and two successful samples.
func createTestRun() *model.RunSummary {
	start := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	return &model.RunSummary{
		RunID: "run-123",
		Samples: []model.Sample{
			{
				RunID: "run-123", Index: 1, StartedAt: start, State: "completed",
				TrustScore: json.RawMessage(`87.5`), Lies: json.RawMessage(`false`),
				Bot: json.RawMessage(`false`), Fingerprint: json.RawMessage(`"0123456789abcdef0123456789abcdef"`),
				ScreenshotPath: "screenshot_1.png", DocumentPath: "webpage_1.pdf", OutputPath: "output_1.json",
			},
			{
				RunID: "run-123", Index: 2, StartedAt: start, State: "failed",
				ErrorKind: "navigation", ErrorMessage: "navigate: context deadline exceeded",
			},
			{
				RunID: "run-123", Index: 3, StartedAt: start, State: "completed",
				TrustScore: json.RawMessage(`60`), Lies: json.RawMessage(`true`),
				Bot: json.RawMessage(`false`), Fingerprint: json.RawMessage(`"ff"`),
			},
		},
	}
}

// TestWriteRecordFile tests the per-iteration output document.
func TestWriteRecordFile(t *testing.T) {
	t.Parallel()

	rec := model.OutputRecord{
		TrustScore:  json.RawMessage(`87.5`),
		Lies:        json.RawMessage(`false`),
		Bot:         json.RawMessage(`{"a":1}`),
		Fingerprint: json.RawMessage(`"abc"`),
	}

	t.Run("writes four indented fields", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path, err := WriteRecordFile(dir, 2, rec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != filepath.Join(dir, "output_2.json") {
			t.Errorf("unexpected path %q", path)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "\n  \"trustScore\": 87.5,") {
			t.Errorf("expected two-space indentation, got %s", data)
		}

		var got map[string]json.RawMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 {
			t.Errorf("expected 4 fields, got %d", len(got))
		}
		for _, k := range []string{"trustScore", "lies", "bot", "fingerprint"} {
			if _, ok := got[k]; !ok {
				t.Errorf("missing %q", k)
			}
		}
	})

	t.Run("replaces an existing file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		old := filepath.Join(dir, "output_1.json")
		if err := os.WriteFile(old, []byte(strings.Repeat(" ", 4096)+"garbage"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := WriteRecordFile(dir, 1, rec); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(old) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "garbage") {
			t.Error("old content survived")
		}
		if !json.Valid(data) {
			t.Errorf("invalid JSON: %s", data)
		}
	})

	t.Run("unwritable directory", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := WriteRecordFile(filepath.Join(blocker, "sub"), 1, rec); err == nil {
			t.Error("expected error")
		}
	})
}

// TestJSONWriter tests run summary JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewJSONWriter(&buf).Write(createTestRun())
		if err != nil {
			t.Fatal(err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes, got %d", buf.Len(), n)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("compact output must be one line")
		}

		var got model.RunSummary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.RunID != "run-123" || len(got.Samples) != 3 {
			t.Errorf("unexpected run %+v", got)
		}
		if string(got.Samples[0].TrustScore) != "87.5" {
			t.Errorf("unexpected trust score %s", got.Samples[0].TrustScore)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRun()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"run_id\"") {
			t.Errorf("expected indentation, got %s", buf.String())
		}
	})
}

// TestMarkdownWriter tests run summary Markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("mixed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{
			"# fpprobe Run",
			"`run-123`",
			"87.5",
			"navigate: context deadline exceeded",
			"navigation: navigate: context deadline exceeded",
			"Iteration 2 (navigation)",
			"1 of 3 iterations failed.",
			"mermaid",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(out, "0123456789abcdef0123456789abcdef") {
			t.Error("fingerprint should be truncated")
		}
	})

	t.Run("error cell", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			sample model.Sample
			want   string
		}{
			{"success", model.Sample{}, "-"},
			{"kind and message", model.Sample{ErrorKind: "capture", ErrorMessage: "pdf: failed"}, "capture: pdf: failed"},
			{"no kind", model.Sample{ErrorMessage: "boom"}, "boom"},
			{"pipe is escaped", model.Sample{ErrorMessage: "a|b"}, `a\|b`},
		}
		for _, tt := range tests {
			if got := errorCell(tt.sample); got != tt.want {
				t.Errorf("%s: errorCell() = %q, want %q", tt.name, got, tt.want)
			}
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(&model.RunSummary{RunID: "empty"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No iterations recorded.") {
			t.Errorf("unexpected output %s", buf.String())
		}
	})
}

// TestSimpleWriter tests the terminal summary.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{
			"Run run-123: 2 succeeded, 1 failed",
			"[1] trustScore=87.5 lies=false bot=false",
			"[2] FAILED (navigation): navigate: context deadline exceeded",
			"[3] trustScore=60 lies=true bot=false fingerprint=ff",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "screenshot_1.png") {
			t.Error("paths are verbose only")
		}
	})

	t.Run("verbose shows paths", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "output_1.json") {
			t.Error("expected artifact paths")
		}
	})
}

type errWriter struct{}

func (errWriter) Write(*model.RunSummary) (int, error) { return 0, errors.New("broken") }

// TestMultiWriter tests fan-out and error propagation.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewJSONWriter(&a), NewSimpleWriter(&b)).Write(createTestRun())
		if err != nil {
			t.Fatal(err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
		}
	})

	t.Run("stops on error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewMultiWriter(errWriter{}, NewSimpleWriter(&buf)).Write(createTestRun())
		if err == nil {
			t.Error("expected error")
		}
		if buf.Len() != 0 {
			t.Error("later writers must not run")
		}
	})
}

// TestFormatValue tests human rendering of raw values.
func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  json.RawMessage
		want string
	}{
		{nil, "-"},
		{json.RawMessage(`"abc"`), "abc"},
		{json.RawMessage(`12.5`), "12.5"},
		{json.RawMessage(`true`), "true"},
		{json.RawMessage(`{"a":1}`), `{"a":1}`},
	}
	for _, tt := range tests {
		if got := formatValue(tt.raw); got != tt.want {
			t.Errorf("formatValue(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
