package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/savestat/internal/model"
)

const (
	ruleWidth  = 70
	timeLayout = "2006-01-02 15:04:05 MST"
)

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// showDiagnostics controls whether the diagnostics section is written.
	showDiagnostics bool

	// verbose adds the chunk statistics and info-level diagnostics.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithDiagnostics configures whether diagnostics are shown.
func WithDiagnostics(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showDiagnostics = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
// Diagnostics are shown by default.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:      newBaseWriter(output),
		showDiagnostics: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFactory(&sb, report)
	w.writeUnmapped(&sb, report)
	w.writeDiagnostics(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteAll outputs each report in turn.
func (w *SimpleWriter) WriteAll(reports []*model.Report) (int, error) {
	return writeEach(w.output, reports, w.Write)
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// writeHeader writes the banner and the save metadata.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	h := report.Header

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                          SAVESTAT REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Session:        %s\n", h.SessionName)
	fmt.Fprintf(sb, "Save:           %s\n", h.SaveName)
	fmt.Fprintf(sb, "Map:            %s\n", h.MapName)
	fmt.Fprintf(sb, "Version:        save %d, build %d\n", h.SaveVersion, h.BuildVersion)
	fmt.Fprintf(sb, "Play Time:      %s\n", h.PlayTime)
	fmt.Fprintf(sb, "Saved At:       %s\n", formatSaveTime(h))
	if mods, ok := h.Mods.Get(); ok {
		fmt.Fprintf(sb, "Mods:           %d\n", mods.Count)
		for _, name := range mods.Names {
			fmt.Fprintf(sb, "                  - %s\n", name)
		}
	} else if h.IsModded {
		sb.WriteString("Mods:           yes (metadata unreadable)\n")
	}
	fmt.Fprintf(sb, "File:           %s (%s bytes)\n", report.Source.Path, formatCount(int(report.Source.Size)))

	status := "Complete"
	switch {
	case report.Source.Truncated:
		status = "PARTIAL (stream ends in a truncated chunk)"
	case report.Source.ChunkFailures > 0:
		status = fmt.Sprintf("PARTIAL (%d chunks failed to inflate)", report.Source.ChunkFailures)
	}
	fmt.Fprintf(sb, "Status:         %s\n", status)

	if w.verbose {
		src := report.Source
		fmt.Fprintf(sb, "Run ID:         %s\n", src.RunID)
		fmt.Fprintf(sb, "Chunks:         %d inflated, %d failed\n", src.Chunks, src.ChunkFailures)
		fmt.Fprintf(sb, "Body:           %s bytes (%s declared)\n", formatCount(src.BodySize), formatCount(int(src.DeclaredSize)))
		fmt.Fprintf(sb, "References:     %s distinct\n", formatCount(src.Instances))
	}

	sb.WriteString("\n")
}

func formatSaveTime(h model.SaveHeader) string {
	if t, ok := h.SaveTime.Get(); ok {
		return t.UTC().Format(timeLayout)
	}
	return "unknown"
}

// writeSummary writes the one-line digest and the category totals.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	section(sb, "SUMMARY")

	fmt.Fprintf(sb, "  %s\n\n", report.Summary)
	for _, c := range report.Totals.Categories {
		fmt.Fprintf(sb, "  %-12s %10s\n", strings.ToUpper(c.Name)+":", formatCount(c.Count))
	}
	fmt.Fprintf(sb, "  %-12s %10s\n\n", "TOTAL:", formatCount(report.Totals.All))
}

// writeFactory writes every category with its display names.
func (w *SimpleWriter) writeFactory(sb *strings.Builder, report *model.Report) {
	if len(report.Factory) == 0 {
		return
	}
	section(sb, "FACTORY")

	for _, ct := range report.Factory {
		fmt.Fprintf(sb, "[%s] %s\n", categoryTitle(ct.Category), formatCount(ct.Items.Total()))
		for _, item := range ct.Items {
			fmt.Fprintf(sb, "  %-36s %8s\n", truncateString(item.Name, 36), formatCount(item.Count))
		}
		sb.WriteString("\n")
	}
}

// writeUnmapped lists classes that no rule resolved.
func (w *SimpleWriter) writeUnmapped(sb *strings.Builder, report *model.Report) {
	if len(report.Unmapped) == 0 {
		return
	}
	section(sb, "UNMAPPED CLASSES")

	for _, item := range report.Unmapped {
		fmt.Fprintf(sb, "  [?] %-40s %8s\n", truncateString(item.Name, 40), formatCount(item.Count))
	}
	sb.WriteString("\n")
}

// writeDiagnostics writes non-fatal problems. Info entries need verbose.
func (w *SimpleWriter) writeDiagnostics(sb *strings.Builder, report *model.Report) {
	if !w.showDiagnostics || !report.HasDiagnostics() {
		return
	}

	var shown []model.Diagnostic
	for _, d := range report.Diagnostics {
		if d.Severity > model.SeverityInfo || w.verbose {
			shown = append(shown, d)
		}
	}
	if len(shown) == 0 {
		return
	}

	section(sb, "DIAGNOSTICS")
	for _, d := range shown {
		fmt.Fprintf(sb, "  %s\n", d)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Counts are recovered from object references and are a lower bound.\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

// WriteComparison outputs the comparison in human-readable text format.
func (w *SimpleWriter) WriteComparison(c *model.Comparison) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Inventory Comparison: %s\n", c.SessionName)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "\nFactory: %s (%s)\n", formatDirection(c.Growth.Direction), formatDelta(c.Growth.Delta))

	fmt.Fprintf(&sb, "\nPrevious run: %s  %s  play time %s\n",
		c.Previous.ParsedAt.Format("2006-01-02 15:04:05"), c.Previous.SaveName, c.Previous.PlayTime)
	fmt.Fprintf(&sb, "Current run:  %s  %s  play time %s\n",
		c.Current.ParsedAt.Format("2006-01-02 15:04:05"), c.Current.SaveName, c.Current.PlayTime)

	sb.WriteString("\nTotals:\n")
	fmt.Fprintf(&sb, "  %-12s  %-10s  %-10s  %-10s\n", "Category", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 48) + "\n")
	for _, cat := range model.CategoryOrder {
		before, after := c.Previous.Totals.Get(cat), c.Current.Totals.Get(cat)
		if before == 0 && after == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  %-12s  %-10s  %-10s  %-10s\n", categoryTitle(cat),
			formatCount(before), formatCount(after), formatDelta(after-before))
	}
	sb.WriteString("  " + strings.Repeat("-", 48) + "\n")
	fmt.Fprintf(&sb, "  %-12s  %-10s  %-10s  %-10s\n", "Total",
		formatCount(c.Previous.Totals.All), formatCount(c.Current.Totals.All), formatDelta(c.Growth.Delta))

	if len(c.Changes) > 0 {
		fmt.Fprintf(&sb, "\nChanges (%d):\n", len(c.Changes))
		for _, ch := range c.Changes {
			marker := "[+]"
			if ch.Delta < 0 {
				marker = "[-]"
			}
			fmt.Fprintf(&sb, "  %s [%s] %s: %s -> %s (%s)\n", marker, ch.Category, ch.Name,
				formatCount(ch.Before), formatCount(ch.After), formatDelta(ch.Delta))
		}
	}

	if c.UnchangedCount > 0 {
		fmt.Fprintf(&sb, "\nUnchanged: %d entries\n", c.UnchangedCount)
	}

	return io.WriteString(w.output, sb.String())
}

// formatDirection formats the growth direction for display.
func formatDirection(direction string) string {
	switch direction {
	case model.DirectionGrew:
		return "GREW"
	case model.DirectionShrank:
		return "SHRANK"
	default:
		return "UNCHANGED"
	}
}
