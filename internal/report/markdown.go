package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/savestat/internal/model"
)

// MarkdownWriter outputs reports as GitHub Flavored Markdown with tables,
// alerts and a mermaid pie chart of the category totals.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFactory(md, report)
	w.writeUnmapped(md, report)
	w.writeDiagnostics(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteAll outputs each report in turn.
func (w *MarkdownWriter) WriteAll(reports []*model.Report) (int, error) {
	return writeEach(w.output, reports, w.Write)
}

// writeHeader writes the title and the save metadata table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	h := report.Header

	md.H1("Savestat Report: " + h.SessionName)
	md.PlainText("")

	rows := [][]string{
		{"Save", "`" + h.SaveName + "`"},
		{"Map", h.MapName},
		{"Save Version", strconv.FormatUint(uint64(h.SaveVersion), 10)},
		{"Build", strconv.FormatUint(uint64(h.BuildVersion), 10)},
		{"Play Time", h.PlayTime},
		{"Saved At", formatSaveTime(h)},
	}
	if mods, ok := h.Mods.Get(); ok {
		rows = append(rows, []string{"Mods", strconv.Itoa(mods.Count)})
	}
	rows = append(rows,
		[]string{"File", "`" + report.Source.Path + "`"},
		[]string{"Chunks", fmt.Sprintf("%d inflated, %d failed", report.Source.Chunks, report.Source.ChunkFailures)},
		[]string{"Status", w.getStatusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the chunk statistics.
func (w *MarkdownWriter) getStatusText(report *model.Report) string {
	if report.Source.Truncated {
		return "⚠️ Partial (truncated chunk)"
	}
	if report.Source.ChunkFailures > 0 {
		return "⚠️ Partial (" + strconv.Itoa(report.Source.ChunkFailures) + " chunks failed)"
	}
	return "✅ Complete"
}

// writeSummary writes the totals table and the pie chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Summary")
	md.PlainText("")
	md.PlainText("**" + report.Summary + "**")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Totals.Categories)+1)
	for _, c := range report.Totals.Categories {
		rows = append(rows, []string{categoryTitle(model.Category(c.Name)), formatCount(c.Count)})
	}
	rows = append(rows, []string{"**Total**", "**" + formatCount(report.Totals.All) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Totals.All > 0 {
		w.writePieChart(md, report)
	}

	md.Note("Counts are recovered from object references in the save body and are an approximate lower bound.")
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the category totals.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Buildings by Category"),
		piechart.WithShowData(true),
	)
	for _, c := range report.Totals.Categories {
		if c.Count > 0 {
			chart.LabelAndIntValue(categoryTitle(model.Category(c.Name)), uint64(c.Count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFactory writes one table per category.
func (w *MarkdownWriter) writeFactory(md *markdown.Markdown, report *model.Report) {
	md.H2("Factory")
	md.PlainText("")

	if len(report.Factory) == 0 {
		md.PlainText("No buildings found.")
		md.PlainText("")
		return
	}

	for _, ct := range report.Factory {
		md.PlainText(fmt.Sprintf("### %s (%s)", categoryTitle(ct.Category), formatCount(ct.Items.Total())))
		md.PlainText("")

		rows := make([][]string, len(ct.Items))
		for i, item := range ct.Items {
			rows[i] = []string{item.Name, formatCount(item.Count)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Building", "Count"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeUnmapped lists classes that no rule resolved.
func (w *MarkdownWriter) writeUnmapped(md *markdown.Markdown, report *model.Report) {
	if len(report.Unmapped) == 0 {
		return
	}

	items := make([]string, len(report.Unmapped))
	for i, u := range report.Unmapped {
		items[i] = fmt.Sprintf("`%s`: %s", u.Name, formatCount(u.Count))
	}

	md.H2("Unmapped Classes")
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

// writeDiagnostics writes warnings and errors as an alert.
func (w *MarkdownWriter) writeDiagnostics(md *markdown.Markdown, report *model.Report) {
	var warnings, errs int
	var lines []string
	for _, d := range report.Diagnostics {
		switch d.Severity {
		case model.SeverityError:
			errs++
		case model.SeverityWarning:
			warnings++
		default:
			continue
		}
		lines = append(lines, d.String())
	}
	if len(lines) == 0 {
		return
	}

	md.H2("Diagnostics")
	md.PlainText("")
	switch {
	case errs > 0:
		md.Cautionf("The body is incomplete: %d error(s), %d warning(s). Counts may be low.", errs, warnings)
	default:
		md.Warningf("%d warning(s) while decoding. Counts may be low.", warnings)
	}
	md.PlainText("")
	md.BulletList(lines...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by savestat*")
}

// WriteComparison outputs the comparison in Markdown format.
func (w *MarkdownWriter) WriteComparison(c *model.Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Inventory Comparison: " + c.SessionName)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainText(fmt.Sprintf("**Factory:** %s (%s)", formatDirection(c.Growth.Direction), formatDelta(c.Growth.Delta)))
	md.PlainText("")

	rows := [][]string{
		{"Date", c.Previous.ParsedAt.Format("2006-01-02 15:04"), c.Current.ParsedAt.Format("2006-01-02 15:04"), "-"},
		{"Play Time", c.Previous.PlayTime, c.Current.PlayTime, "-"},
	}
	for _, cat := range model.CategoryOrder {
		before, after := c.Previous.Totals.Get(cat), c.Current.Totals.Get(cat)
		if before == 0 && after == 0 {
			continue
		}
		rows = append(rows, []string{categoryTitle(cat), formatCount(before), formatCount(after), formatDelta(after - before)})
	}
	rows = append(rows, []string{
		"**Total**",
		"**" + formatCount(c.Previous.Totals.All) + "**",
		"**" + formatCount(c.Current.Totals.All) + "**",
		"**" + formatDelta(c.Growth.Delta) + "**",
	})
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(c.Changes) > 0 {
		md.H2(fmt.Sprintf("Changes (%d)", len(c.Changes)))
		md.PlainText("")
		changeRows := make([][]string, len(c.Changes))
		for i, ch := range c.Changes {
			changeRows[i] = []string{categoryTitle(ch.Category), ch.Name,
				formatCount(ch.Before), formatCount(ch.After), formatDelta(ch.Delta)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Category", "Building", "Before", "After", "Change"},
			Rows:   changeRows,
		})
		md.PlainText("")
	}

	if c.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d entries unchanged*", c.UnchangedCount)
	}

	return len(md.String()), md.Build()
}
