package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/savestat/internal/config"
	"github.com/nao1215/savestat/internal/database"
	"github.com/nao1215/savestat/internal/model"
	"github.com/nao1215/savestat/internal/report"
)

// Errors returned by the history command.
var (
	errSessionRequired  = errors.New("session name is required (use --list-sessions to see stored sessions)")
	errNotEnoughHistory = errors.New("not enough stored runs to compare")
)

// sinceLayout is the date format accepted by --since.
const sinceLayout = "2006-01-02"

// historyOptions holds the parsed history flags.
type historyOptions struct {
	session  string
	withID   int64
	since    string
	json     bool
	markdown bool
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history [session]",
		Aliases: []string{"compare"},
		Short:   "Compare the inventory of a session between parse runs",
		Long: `History shows how the factory of a session changed between saves.

Each successful 'savestat parse' stores its report in a local database. This
command compares the latest stored run of a session with an earlier one and
lists every building whose count changed.

Examples:
  # Compare the latest two runs of a session
  savestat history "My Factory"

  # List stored runs of a session
  savestat history --list "My Factory"

  # Compare with a specific stored run by ID
  savestat history --with-id 5 "My Factory"

  # Compare with the first run on or after a date
  savestat history --since 2025-01-01 "My Factory"

  # Output the comparison as JSON
  savestat history --json "My Factory"

  # List all stored sessions
  savestat history --list-sessions`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List stored runs for the specified session")
	cmd.Flags().BoolP("list-sessions", "L", false,
		"List all sessions in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific stored run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run on or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the comparison in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	listSessions, err := flags.GetBool("list-sessions")
	if err != nil {
		return err
	}

	// Validate before opening the database.
	var opts historyOptions
	if !listSessions {
		if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
			return errSessionRequired
		}
		opts.session = args[0]
	}

	if opts.withID, err = flags.GetInt64("with-id"); err != nil {
		return err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if listSessions {
		return listStoredSessions(ctx, db, out)
	}

	listHistory, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listSessionHistory(ctx, db, out, opts.session)
	}

	return runComparison(ctx, db, out, opts)
}

// listStoredSessions lists all sessions that have stored runs.
func listStoredSessions(ctx context.Context, db *database.HistoryDB, out io.Writer) error {
	sessions, err := db.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found in the database.")
		fmt.Fprintln(out, "\nUse 'savestat parse <save-file>' to record a save.")
		return nil
	}

	fmt.Fprintf(out, "Stored sessions (%d):\n\n", len(sessions))
	for _, session := range sessions {
		fmt.Fprintf(out, "  • %s\n", session)
	}
	fmt.Fprintln(out, "\nUse 'savestat history --list <session>' to see the runs of a session.")

	return nil
}

// listSessionHistory lists all stored runs of a session.
func listSessionHistory(ctx context.Context, db *database.HistoryDB, out io.Writer, session string) error {
	metas, err := db.GetHistoryWithMetadata(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(metas) == 0 {
		fmt.Fprintf(out, "No stored runs found for %s\n", session)
		fmt.Fprintln(out, "\nUse 'savestat parse' to record a save of this session.")
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d runs):\n\n", session, len(metas))
	fmt.Fprintf(out, "  %-6s  %-20s  %-24s  %s\n", "ID", "Date", "Save", "Totals")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, meta := range metas {
		fmt.Fprintf(out, "  %-6d  %-20s  %-24s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.SaveName,
			formatTotals(meta.Totals),
		)
	}

	fmt.Fprintln(out, "\nUse 'savestat history <session>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'savestat history --with-id <id> <session>' to compare with a specific run.")

	return nil
}

// formatTotals renders totals as "all:42 machines:30 extractors:12".
func formatTotals(t model.Totals) string {
	parts := make([]string, 0, len(t.Categories)+1)
	parts = append(parts, fmt.Sprintf("all:%d", t.All))
	for _, c := range t.Categories {
		parts = append(parts, fmt.Sprintf("%s:%d", c.Name, c.Count))
	}
	return strings.Join(parts, " ")
}

// runComparison compares the latest stored run of a session with an
// earlier one and writes the result in the requested format.
func runComparison(ctx context.Context, db *database.HistoryDB, out io.Writer, opts historyOptions) error {
	reports, err := db.GetReportHistory(ctx, opts.session)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no stored runs found for %s", opts.session)
	}

	previous, err := selectPrevious(ctx, db, reports, opts)
	if err != nil {
		return err
	}

	comparison := model.Compare(previous, reports[0])

	var w report.Writer
	switch {
	case opts.json:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	_, err = w.WriteComparison(comparison)
	return err
}

// selectPrevious picks the run to compare the latest one against.
// reports are ordered newest first.
func selectPrevious(ctx context.Context, db *database.HistoryDB, reports []*model.Report, opts historyOptions) (*model.Report, error) {
	current := reports[0]

	switch {
	case opts.withID > 0:
		previous, err := db.GetReportByID(ctx, opts.withID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run with ID %d: %w", opts.withID, err)
		}
		if previous == nil {
			return nil, fmt.Errorf("run with ID %d not found", opts.withID)
		}
		if previous.Header.SessionName != opts.session {
			return nil, fmt.Errorf("run ID %d belongs to %s, not %s",
				opts.withID, previous.Header.SessionName, opts.session)
		}
		return previous, nil

	case opts.since != "":
		sinceDate, err := time.Parse(sinceLayout, opts.since)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Oldest run on or after the date.
		var previous *model.Report
		for i := len(reports) - 1; i >= 0; i-- {
			if !reports[i].Source.ParsedAt.Before(sinceDate) {
				previous = reports[i]
				break
			}
		}
		if previous == nil {
			return nil, fmt.Errorf("no stored runs since %s", opts.since)
		}
		if previous == current {
			return nil, fmt.Errorf("%w: only one run since %s", errNotEnoughHistory, opts.since)
		}
		return previous, nil

	default:
		if len(reports) < 2 {
			return nil, fmt.Errorf("%w: found %d, need 2", errNotEnoughHistory, len(reports))
		}
		return reports[1], nil
	}
}
