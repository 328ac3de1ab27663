// Package report renders parse results and run comparisons.
//
// Three writers implement the Writer interface:
//   - JSONWriter: the structured report, for other tools (default output)
//   - SimpleWriter: human-readable text for the terminal
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a pie chart
//
// Diagnostics never appear in JSON output; the text and Markdown writers
// show them in their own section.
package report
