package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/savestat/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	report := model.NewReport("saves/Test_autosave_0.sav")
	report.Source.Size = 123456
	report.Source.Chunks = 3
	report.Source.BodySize = 400000
	report.Source.Instances = 1240

	report.Header = model.SaveHeader{
		SaveVersion:     52,
		BuildVersion:    123456,
		SaveName:        "Test_autosave_0",
		MapName:         "Persistent_Level",
		SessionName:     "Test",
		PlayTimeSeconds: 3723,
		PlayTime:        "1h 2m 3s",
		SaveTime:        model.Some(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	}

	report.Factory = model.Factory{
		{Category: model.CategoryMachines, Items: model.Tally{
			{Name: "Constructor", Count: 1200},
			{Name: "Smelter", Count: 20},
		}},
		{Category: model.CategoryExtractors, Items: model.Tally{
			{Name: "Miner Mk.1", Count: 20},
		}},
	}
	report.Totals = model.Totals{
		Categories: model.Tally{
			{Name: "machines", Count: 1220},
			{Name: "extractors", Count: 20},
		},
		All: 1240,
	}
	report.Unmapped = model.Tally{{Name: "Build_Mystery", Count: 4}}
	report.Summary = "1240 total buildings (1220 machines, 20 extractors)"

	return report
}

func createTestComparison() *model.Comparison {
	previous := createTestReport()
	current := createTestReport()
	current.Factory[0].Items = model.Tally{
		{Name: "Constructor", Count: 1210},
		{Name: "Smelter", Count: 20},
	}
	current.Totals = model.Totals{
		Categories: model.Tally{
			{Name: "machines", Count: 1230},
			{Name: "extractors", Count: 20},
		},
		All: 1250,
	}
	return model.Compare(previous, current)
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"SAVESTAT REPORT",
			"Session:        Test",
			"Play Time:      1h 2m 3s",
			"Saved At:       2024-05-01 12:00:00 UTC",
			"1240 total buildings (1220 machines, 20 extractors)",
			"MACHINES:",
			"1,220",
			"Status:         Complete",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes factory and unmapped sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[Machines] 1,220") {
			t.Error("expected category heading with total")
		}
		if !strings.Contains(output, "Constructor") {
			t.Error("expected display name in factory section")
		}
		if !strings.Contains(output, "[?] Build_Mystery") {
			t.Error("expected unmapped class")
		}
	})

	t.Run("reports partial status", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Source.Truncated = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "PARTIAL (stream ends in a truncated chunk)") {
			t.Error("expected partial status")
		}
	})

	t.Run("hides info diagnostics unless verbose", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.AddDiagnostic(model.NewDiagnostic(model.SeverityInfo, model.StageExtract, "skipped %d references", 2))
		report.AddDiagnostic(model.NewDiagnostic(model.SeverityWarning, model.StageDecompress, "chunk %d failed", 3))

		var quiet bytes.Buffer
		if _, err := NewSimpleWriter(&quiet).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(quiet.String(), "skipped 2 references") {
			t.Error("info diagnostic should be hidden without verbose")
		}
		if !strings.Contains(quiet.String(), "[WARNING] decompress: chunk 3 failed") {
			t.Error("expected warning diagnostic")
		}

		var verbose bytes.Buffer
		if _, err := NewSimpleWriter(&verbose, WithVerbose(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(verbose.String(), "[INFO] extract: skipped 2 references") {
			t.Error("expected info diagnostic in verbose mode")
		}
		if !strings.Contains(verbose.String(), "Run ID:") {
			t.Error("expected run id in verbose mode")
		}
	})

	t.Run("can disable diagnostics", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.AddDiagnostic(model.NewDiagnostic(model.SeverityError, model.StageDecompress, "aborted"))

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithDiagnostics(false)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "DIAGNOSTICS") {
			t.Error("diagnostics section should be hidden")
		}
	})

	t.Run("omits diagnostics section for a clean run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "DIAGNOSTICS") {
			t.Error("clean run should have no diagnostics section")
		}
	})

	t.Run("writes comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"Inventory Comparison: Test",
			"Factory: GREW (+10)",
			"Changes (1):",
			"[+] [machines] Constructor: 1,200 -> 1,210 (+10)",
			"Unchanged: 2 entries",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON without diagnostics", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.AddDiagnostic(model.NewDiagnostic(model.SeverityWarning, model.StageDecompress, "chunk failed"))

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		for _, key := range []string{"source", "header", "factory", "totals", "summary", "unmapped"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("expected key %q", key)
			}
		}
		if strings.Contains(buf.String(), "chunk failed") {
			t.Error("diagnostics must not appear in JSON output")
		}
	})

	t.Run("totals list all last", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `"totals":{"machines":1220,"extractors":20,"all":1240}`
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %s in %s", want, buf.String())
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"source\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("write all", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			reports   []*model.Report
			wantArray bool
		}{
			{name: "nil", reports: nil, wantArray: true},
			{name: "single", reports: []*model.Report{createTestReport()}, wantArray: false},
			{name: "multiple", reports: []*model.Report{createTestReport(), createTestReport()}, wantArray: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				var buf bytes.Buffer
				if _, err := NewJSONWriter(&buf).WriteAll(tt.reports); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				isArray := strings.HasPrefix(buf.String(), "[")
				if isArray != tt.wantArray {
					t.Errorf("array output = %v, want %v: %s", isArray, tt.wantArray, buf.String())
				}
				if !json.Valid(buf.Bytes()) {
					t.Error("output is not valid JSON")
				}
			})
		}
	})

	t.Run("writes comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.Comparison
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Growth.Direction != model.DirectionGrew {
			t.Errorf("direction = %q, want %q", decoded.Growth.Direction, model.DirectionGrew)
		}
		if len(decoded.Changes) != 1 {
			t.Errorf("changes = %d, want 1", len(decoded.Changes))
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Savestat Report: Test",
			"## Summary",
			"## Factory",
			"### Machines (1,220)",
			"Constructor",
			"```mermaid",
			"pie",
			"## Unmapped Classes",
			"`Build_Mystery`: 4",
			"✅ Complete",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("no chart for empty report", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport("empty.sav")
		report.Summary = "0 total buildings ()"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "```mermaid") {
			t.Error("empty report should not contain a chart")
		}
		if !strings.Contains(buf.String(), "No buildings found.") {
			t.Error("expected empty factory message")
		}
	})

	t.Run("writes diagnostics alert", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Source.ChunkFailures = 2
		report.AddDiagnostic(model.NewDiagnostic(model.SeverityError, model.StageDecompress, "aborted after 2 failures"))

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected caution alert")
		}
		if !strings.Contains(output, "aborted after 2 failures") {
			t.Error("expected diagnostic message")
		}
		if !strings.Contains(output, "Partial (2 chunks failed)") {
			t.Error("expected partial status")
		}
	})

	t.Run("writes comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Inventory Comparison: Test",
			"**Factory:** GREW (+10)",
			"## Changes (1)",
			"Constructor",
			"*2 entries unchanged*",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.Report) (int, error)              { return 0, errWrite }
func (failingWriter) WriteAll([]*model.Report) (int, error)         { return 0, errWrite }
func (failingWriter) WriteComparison(*model.Comparison) (int, error) { return 0, errWrite }

var errWrite = errors.New("write failed")

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))

		if _, err := mw.WriteAll([]*model.Report{createTestReport()}); !errors.Is(err, errWrite) {
			t.Errorf("err = %v, want %v", err, errWrite)
		}
		if buf.Len() != 0 {
			t.Error("second writer should not be called")
		}
	})

	t.Run("writes comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(&buf))
		if _, err := mw.WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !json.Valid(buf.Bytes()) {
			t.Error("output is not valid JSON")
		}
	})
}

func TestWriteAllSeparatesReports(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	reports := []*model.Report{createTestReport(), createTestReport()}
	if _, err := NewSimpleWriter(&buf).WriteAll(reports); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(buf.String(), "SAVESTAT REPORT"); got != 2 {
		t.Errorf("banner count = %d, want 2", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	t.Run("formatCount", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			in   int
			want string
		}{
			{0, "0"},
			{999, "999"},
			{1000, "1,000"},
			{-1234567, "-1,234,567"},
		}
		for _, tt := range tests {
			if got := formatCount(tt.in); got != tt.want {
				t.Errorf("formatCount(%d) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("formatDelta", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			in   int
			want string
		}{
			{5, "+5"},
			{0, "0"},
			{-5, "-5"},
		}
		for _, tt := range tests {
			if got := formatDelta(tt.in); got != tt.want {
				t.Errorf("formatDelta(%d) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("truncateString", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			in     string
			maxLen int
			want   string
		}{
			{"short", 10, "short"},
			{"exactly10!", 10, "exactly10!"},
			{"this is too long", 10, "this is..."},
			{"abcdef", 3, "abc"},
			{"日本語のテキスト", 5, "日本..."},
		}
		for _, tt := range tests {
			if got := truncateString(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		}
	})

	t.Run("categoryTitle", func(t *testing.T) {
		t.Parallel()

		if got := categoryTitle(model.CategoryMachines); got != "Machines" {
			t.Errorf("categoryTitle = %q, want Machines", got)
		}
	})

	t.Run("formatDirection", func(t *testing.T) {
		t.Parallel()

		tests := map[string]string{
			model.DirectionGrew:      "GREW",
			model.DirectionShrank:    "SHRANK",
			model.DirectionUnchanged: "UNCHANGED",
		}
		for in, want := range tests {
			if got := formatDirection(in); got != want {
				t.Errorf("formatDirection(%q) = %q, want %q", in, got, want)
			}
		}
	})
}
