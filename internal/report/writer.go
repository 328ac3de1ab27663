package report

import (
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/savestat/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a single report.
	Write(report *model.Report) (int, error)

	// WriteAll outputs the reports of a multi-file run.
	WriteAll(reports []*model.Report) (int, error)

	// WriteComparison outputs the difference between two stored runs.
	WriteComparison(c *model.Comparison) (int, error)
}

// MultiWriter writes to multiple Writers in turn, for example the terminal
// and a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteAll outputs the reports to all configured Writers.
func (m *MultiWriter) WriteAll(reports []*model.Report) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteAll(reports) })
}

// WriteComparison outputs the comparison to all configured Writers.
func (m *MultiWriter) WriteComparison(c *model.Comparison) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteComparison(c) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// writeEach writes reports one after another with a blank line between them.
func writeEach(output io.Writer, reports []*model.Report, write func(*model.Report) (int, error)) (int, error) {
	var total int
	for i, r := range reports {
		if i > 0 {
			n, err := io.WriteString(output, "\n")
			total += n
			if err != nil {
				return total, err
			}
		}
		n, err := write(r)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

var (
	titleCaser = cases.Title(language.English)
	numbers    = message.NewPrinter(language.English)
)

// categoryTitle returns "Machines" for model.CategoryMachines.
func categoryTitle(c model.Category) string {
	return titleCaser.String(c.String())
}

// formatCount formats n with thousands separators.
func formatCount(n int) string {
	return numbers.Sprintf("%d", n)
}

// formatDelta formats a delta with an explicit sign.
func formatDelta(n int) string {
	if n > 0 {
		return "+" + formatCount(n)
	}
	return formatCount(n)
}

// truncateString truncates a string to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
