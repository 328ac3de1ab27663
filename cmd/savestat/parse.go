package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/savestat/internal/config"
	"github.com/nao1215/savestat/internal/database"
	"github.com/nao1215/savestat/internal/inventory"
	applog "github.com/nao1215/savestat/internal/log"
	"github.com/nao1215/savestat/internal/model"
	"github.com/nao1215/savestat/internal/pipeline"
	"github.com/nao1215/savestat/internal/report"
	"github.com/nao1215/savestat/internal/savefile"
)

// errParseFailed is returned when at least one file could not be parsed.
var errParseFailed = errors.New("parse failed")

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "parse [save-file...]",
		Aliases: []string{"scan"},
		Short:   "Count the buildings in one or more save files",
		Long: `Parse decodes save files and reports the buildings they contain.

For each file the header is decoded, the compressed body is inflated chunk by
chunk, object references are collected and every distinct instance is counted
under a display name and a category.

A chunk that fails to inflate does not fail the run: the report is built from
the part of the body that was recovered and a diagnostic is logged. A file
without the compressed stream marker, or with a broken header, fails the run.

Examples:
  # Parse a single save and print the JSON report
  savestat parse MySession_autosave_0.sav

  # Human-readable summary
  savestat parse --text MySession_autosave_0.sav

  # Parse several saves, two at a time, into a Markdown file
  savestat parse -b 2 -m -o report.md saves/*.sav

  # Tolerate up to five broken chunks
  savestat parse --lenient damaged.sav

  # Saves written with the 24 byte size block
  savestat parse -w 24 old.sav`,
		Args: cobra.ArbitraryArgs,
		RunE: runParseCmd,
	}

	// Decoder flags
	cmd.Flags().BoolP("lenient", "l", false,
		"Skip up to five chunks that fail to inflate instead of stopping at the first")
	cmd.Flags().IntP("repeated-width", "w", config.DefaultRepeatedSizesWidth,
		"Width in bytes of the repeated size block after each chunk header (16 or 24)")
	cmd.Flags().Int("max-string-bytes", config.DefaultMaxStringBytes,
		"Upper bound for a single header string")

	// Classifier flags
	cmd.Flags().IntP("min-unmapped", "u", config.DefaultMinUnmappedCount,
		"Smallest count at which an unresolved class is listed as unmapped")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of files parsed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .savestat in current or home directory, then XDG config.yaml)")

	// Report flags
	cmd.Flags().BoolP("text", "t", false,
		"Output a human-readable report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown report (mutually exclusive with --text)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not store the reports in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runParseCmd executes the parse command.
func runParseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewRedactingLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runParse(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and the command
// flags. Flags set explicitly on the command line win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file only matters when the path was given explicitly.
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("lenient") {
		if cfg.Lenient, err = flags.GetBool("lenient"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("repeated-width") {
		if cfg.RepeatedSizesWidth, err = flags.GetInt("repeated-width"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-string-bytes") {
		if cfg.MaxStringBytes, err = flags.GetInt("max-string-bytes"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("min-unmapped") {
		if cfg.MinUnmappedCount, err = flags.GetInt("min-unmapped"); err != nil {
			return nil, err
		}
	}

	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.TextReport, err = flags.GetBool("text"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// newParser builds the parse pipeline described by cfg.
// The decoder, extractor and classifier are shared by all runs of a batch.
func newParser(cfg *config.Config, logger *slog.Logger) func() *pipeline.Pipeline {
	policy := savefile.PolicyConservative
	if cfg.Lenient {
		policy = savefile.PolicyLenient
	}

	decoder := savefile.NewDecoder(
		savefile.WithLogger(logger),
		savefile.WithPolicy(policy),
		savefile.WithRepeatedSizesWidth(cfg.RepeatedSizesWidth),
		savefile.WithMaxStringBytes(cfg.MaxStringBytes),
	)
	extractor := inventory.NewExtractor(inventory.WithExtractorLogger(logger))
	classifier := inventory.NewClassifier(
		inventory.WithDisplayRules(cfg.Rules.DisplayRules()...),
		inventory.WithCategoryRules(cfg.Rules.CategoryRules()...),
		inventory.WithMinUnmappedCount(cfg.MinUnmappedCount),
		inventory.WithMaxUnmapped(cfg.MaxUnmapped),
	)

	return func() *pipeline.Pipeline {
		return pipeline.NewParser(decoder, extractor, classifier, pipeline.WithLogger(logger))
	}
}

// runParse parses every target, writes the reports of the successful runs
// and stores them in the history database. It fails when any file failed.
func runParse(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	logger.Debug("starting parse",
		"files", len(cfg.Targets),
		"policy", policyName(cfg.Lenient),
		"repeatedWidth", cfg.RepeatedSizesWidth,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "dir", cfg.DBDir)
	}

	bp := pipeline.NewBatchProcessor(
		newParser(cfg, logger),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	runs, err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, logProgress(logger))
	if err != nil {
		return err
	}

	reports := make([]*model.Report, 0, len(runs))
	var failures []error
	for _, run := range runs {
		if run.Failed() {
			failures = append(failures, fmt.Errorf("%s: %w", run.Report.Source.Path, run.Err))
			continue
		}
		reports = append(reports, run.Report)
	}

	if len(reports) > 0 {
		if err := outputReports(cfg, stdout, reports); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	for _, r := range reports {
		if err := saveReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save report", "path", r.Source.Path, "error", err)
		}
	}

	if len(failures) == 0 {
		return nil
	}
	if len(runs) == 1 {
		return fmt.Errorf("%w: %w", errParseFailed, failures[0])
	}
	return fmt.Errorf("%w: %d of %d files: %w", errParseFailed, len(failures), len(runs), errors.Join(failures...))
}

// logProgress returns a batch callback that logs what each successful file
// yielded. Failures are reported once, by runParse.
func logProgress(logger *slog.Logger) func(run *pipeline.Run, index int) {
	return func(run *pipeline.Run, index int) {
		if run.Failed() {
			return
		}
		src := run.Report.Source
		logger.Info(fmt.Sprintf("Read %.1f MB", megabytes(src.Size)),
			"file", index+1, "path", src.Path)
		logger.Info(fmt.Sprintf("Decompressed %.1f MB (%d chunks)", megabytes(int64(src.BodySize)), src.Chunks),
			"file", index+1, "path", src.Path)
		logger.Info("Result: "+run.Report.Summary,
			"file", index+1, "path", src.Path)
	}
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

func policyName(lenient bool) string {
	if lenient {
		return savefile.PolicyLenient.String()
	}
	return savefile.PolicyConservative.String()
}

// outputReports writes the reports in the requested format to the report
// file, or to stdout when no file is configured.
func outputReports(cfg *config.Config, stdout io.Writer, reports []*model.Report) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg, output).WriteAll(reports)
	return err
}

// newReportWriter returns the writer for the configured format.
// JSON is the default. A text report on stdout leaves diagnostics to the
// log on stderr; a text report written to a file keeps them.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.TextReport:
		return report.NewSimpleWriter(output,
			report.WithVerbose(cfg.Verbose),
			report.WithDiagnostics(cfg.ReportFile != ""),
		)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	}
}

// saveReport stores the report in the history database.
// If db is nil, this function is a no-op. A file whose digest is already
// stored is skipped so that re-parsing a save adds no empty comparison.
func saveReport(ctx context.Context, db *database.HistoryDB, r *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	stored, err := db.HasDigest(ctx, r.Source.Digest)
	if err != nil {
		return err
	}
	if stored {
		logger.Debug("report already stored", "path", r.Source.Path)
		return nil
	}

	id, err := db.SaveReport(ctx, r)
	if err != nil {
		return err
	}

	logger.Debug("report saved to database", "path", r.Source.Path, "id", id, "session", r.Header.SessionName)
	return nil
}
