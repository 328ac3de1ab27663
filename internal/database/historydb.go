package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/savestat/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "savestat.db"

// HistoryDB stores parse reports so that inventories can be compared
// between runs of the same session.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrDatabaseNotFound is returned by Open when the database file is missing
// and CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error wrapping
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s (run a parse first)", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the path of the database file.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per successful parse run
	CREATE TABLE IF NOT EXISTS save_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		session_name TEXT NOT NULL,
		save_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_digest TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		report_json TEXT NOT NULL,
		totals_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_session ON save_reports(session_name);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON save_reports(timestamp);
	CREATE INDEX IF NOT EXISTS idx_reports_digest ON save_reports(file_digest);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a report and returns its database ID.
// The run's ParsedAt time is used as the timestamp so that ordering follows
// parse order rather than insertion order.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	totalsJSON, err := json.Marshal(report.Totals)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize totals: %w", err)
	}

	query := `
	INSERT INTO save_reports (run_id, session_name, save_name, file_path, file_digest, timestamp, report_json, totals_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		report.Source.RunID,
		report.Header.SessionName,
		report.Header.SaveName,
		report.Source.Path,
		report.Source.Digest,
		formatTimestamp(report.Source.ParsedAt),
		string(reportJSON),
		string(totalsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestReport retrieves the most recent report for a session.
// It returns nil without an error when the session has no reports.
func (hdb *HistoryDB) GetLatestReport(ctx context.Context, session string) (*model.Report, error) {
	query := `
	SELECT report_json FROM save_reports
	WHERE session_name = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	return hdb.queryReport(ctx, query, session)
}

// GetReportByID retrieves a report by its database ID.
// It returns nil without an error when no such report exists.
func (hdb *HistoryDB) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	query := `
	SELECT report_json FROM save_reports
	WHERE id = ?
	`

	return hdb.queryReport(ctx, query, id)
}

func (hdb *HistoryDB) queryReport(ctx context.Context, query string, args ...any) (*model.Report, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListSessions returns the names of all sessions with stored reports.
func (hdb *HistoryDB) ListSessions(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT session_name FROM save_reports
	ORDER BY session_name
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// GetReportHistory retrieves all reports for a session, newest first.
// Rows that no longer decode are skipped.
func (hdb *HistoryDB) GetReportHistory(ctx context.Context, session string) ([]*model.Report, error) {
	query := `
	SELECT report_json FROM save_reports
	WHERE session_name = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("failed to get report history: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.Report
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ReportMetadata contains summary information about a stored report.
// It is used for listing history without loading full reports.
type ReportMetadata struct {
	// ID is the database ID of the report.
	ID int64

	// RunID is the run identifier recorded in the report.
	RunID string

	// SessionName is the session the save belongs to.
	SessionName string

	// SaveName is the file-level save name.
	SaveName string

	// FilePath is the path the save was parsed from.
	FilePath string

	// FileDigest is the hex SHA3-256 of the parsed file.
	FileDigest string

	// Timestamp is when the run was parsed.
	Timestamp time.Time

	// Totals holds the category totals of the run.
	Totals model.Totals
}

// GetHistoryWithMetadata retrieves report metadata for a session, newest first.
func (hdb *HistoryDB) GetHistoryWithMetadata(ctx context.Context, session string) ([]ReportMetadata, error) {
	query := `
	SELECT id, run_id, session_name, save_name, file_path, file_digest, timestamp, totals_json
	FROM save_reports
	WHERE session_name = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("failed to get report history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var timestamp string
		var totalsJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.RunID, &meta.SessionName, &meta.SaveName,
			&meta.FilePath, &meta.FileDigest, &timestamp, &totalsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		meta.Totals = model.Totals{Categories: model.Tally{}}
		if totalsJSON.Valid && totalsJSON.String != "" {
			if err := json.Unmarshal([]byte(totalsJSON.String), &meta.Totals); err != nil {
				meta.Totals = model.Totals{Categories: model.Tally{}}
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// HasDigest reports whether a file with the given digest was already stored.
func (hdb *HistoryDB) HasDigest(ctx context.Context, digest string) (bool, error) {
	query := `SELECT COUNT(*) FROM save_reports WHERE file_digest = ?`

	var count int
	if err := hdb.db.QueryRowContext(ctx, query, digest).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check digest: %w", err)
	}
	return count > 0, nil
}

// storedTimestampFormat sorts lexicographically in time order.
const storedTimestampFormat = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
