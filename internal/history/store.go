package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/fpprobe/internal/model"
)

// FileName is the database file name inside the history directory.
const FileName = "fpprobe.db"

// ErrRunNotFound is returned when no sample exists for a run ID.
var ErrRunNotFound = errors.New("run not found")

// Store provides SQLite-based storage for samples.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
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

// Open opens or creates the store in dbDir.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		state TEXT NOT NULL,
		error_kind TEXT,
		error_message TEXT,
		trust_score TEXT,
		lies TEXT,
		bot TEXT,
		fingerprint TEXT,
		screenshot_path TEXT,
		document_path TEXT,
		output_path TEXT,
		UNIQUE(run_id, iteration)
	);

	CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);
	CREATE INDEX IF NOT EXISTS idx_samples_started ON samples(started_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveSample inserts a sample, replacing an earlier row for the same run
// and iteration.
func (s *Store) SaveSample(ctx context.Context, sample model.Sample) error {
	query := `
	INSERT INTO samples (
		run_id, iteration, started_at, finished_at, state, error_kind, error_message,
		trust_score, lies, bot, fingerprint, screenshot_path, document_path, output_path
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, iteration) DO UPDATE SET
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		state = excluded.state,
		error_kind = excluded.error_kind,
		error_message = excluded.error_message,
		trust_score = excluded.trust_score,
		lies = excluded.lies,
		bot = excluded.bot,
		fingerprint = excluded.fingerprint,
		screenshot_path = excluded.screenshot_path,
		document_path = excluded.document_path,
		output_path = excluded.output_path
	`
	_, err := s.db.ExecContext(ctx, query,
		sample.RunID,
		sample.Index,
		formatTimestamp(sample.StartedAt),
		formatTimestamp(sample.FinishedAt),
		sample.State,
		nullString(sample.ErrorKind),
		nullString(sample.ErrorMessage),
		nullString(string(sample.TrustScore)),
		nullString(string(sample.Lies)),
		nullString(string(sample.Bot)),
		nullString(string(sample.Fingerprint)),
		nullString(sample.ScreenshotPath),
		nullString(sample.DocumentPath),
		nullString(sample.OutputPath),
	)
	if err != nil {
		return fmt.Errorf("failed to save sample: %w", err)
	}
	return nil
}

// RunInfo summarizes one stored run.
type RunInfo struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	Iterations int       `json:"iterations"`
	Succeeded  int       `json:"succeeded"`
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	query := `
	SELECT run_id, MIN(started_at), COUNT(*),
		SUM(CASE WHEN state = ? AND error_message IS NULL THEN 1 ELSE 0 END)
	FROM samples
	GROUP BY run_id
	ORDER BY MIN(started_at) DESC
	`
	rows, err := s.db.QueryContext(ctx, query, model.StateCompleted.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			started string
		)
		if err := rows.Scan(&info.RunID, &started, &info.Iterations, &info.Succeeded); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		info.StartedAt = parseTimestamp(started)
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// LatestRunID returns the ID of the most recent run.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `
	SELECT run_id FROM samples
	GROUP BY run_id
	ORDER BY MIN(started_at) DESC
	LIMIT 1
	`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID, nil
}

// GetRun returns the samples of a run in iteration order.
func (s *Store) GetRun(ctx context.Context, runID string) (*model.RunSummary, error) {
	query := `
	SELECT run_id, iteration, started_at, finished_at, state, error_kind, error_message,
		trust_score, lies, bot, fingerprint, screenshot_path, document_path, output_path
	FROM samples
	WHERE run_id = ?
	ORDER BY iteration ASC
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	run := &model.RunSummary{RunID: runID}
	for rows.Next() {
		var (
			sample            model.Sample
			started, finished string
			errKind, errMsg   sql.NullString
			score, lies       sql.NullString
			bot, fp           sql.NullString
			screenshot        sql.NullString
			document, output  sql.NullString
		)
		if err := rows.Scan(
			&sample.RunID, &sample.Index, &started, &finished, &sample.State, &errKind, &errMsg,
			&score, &lies, &bot, &fp, &screenshot, &document, &output,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sample.StartedAt = parseTimestamp(started)
		sample.FinishedAt = parseTimestamp(finished)
		sample.ErrorKind = errKind.String
		sample.ErrorMessage = errMsg.String
		sample.TrustScore = rawOrNil(score)
		sample.Lies = rawOrNil(lies)
		sample.Bot = rawOrNil(bot)
		sample.Fingerprint = rawOrNil(fp)
		sample.ScreenshotPath = screenshot.String
		sample.DocumentPath = document.String
		sample.OutputPath = output.String
		run.Samples = append(run.Samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(run.Samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func rawOrNil(ns sql.NullString) []byte {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return []byte(ns.String)
}

// timestampLayout is fixed width so stored values sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with the known formats, or returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
