package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // sqlite driver
)

var errNotOpened = errors.New("database not opened")

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Ledger records load runs in SQLite.
type Ledger struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the ledger at path and applies pending
// migrations. Use ":memory:" for an in-memory ledger.
// If logger is nil, a discard logger is used.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("state ledger opened", slog.String("path", path))
	return &Ledger{db: db, path: path, logger: logger}, nil
}

// Close closes the SQLite database connection.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Path returns the ledger's file path.
func (l *Ledger) Path() string { return l.path }

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// timeLayout is fixed-width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CreateRun records the start of a load into target.
func (l *Ledger) CreateRun(ctx context.Context, target string) (*Run, error) {
	if l.db == nil {
		return nil, errNotOpened
	}

	run := &Run{
		ID:        generateID(),
		Target:    target,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	l.logger.Debug("creating run", slog.String("id", run.ID), slog.String("target", target))

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO load_runs (id, target, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Target, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as completed with its per-table row counts.
func (l *Ledger) CompleteRun(ctx context.Context, id string, tables []TableCount, outcome Outcome) error {
	if l.db == nil {
		return errNotOpened
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE load_runs SET status = ?, completed_at = ?, cast_fallbacks = ?, unknown_penalties = ? WHERE id = ?`,
		string(RunStatusCompleted), formatTime(time.Now()), outcome.CastFallbacks, outcome.UnknownPenalties, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	for i, tc := range tables {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO load_run_tables (run_id, position, table_name, row_count) VALUES (?, ?, ?, ?)`,
			id, i, tc.Table, tc.Rows,
		)
		if err != nil {
			return fmt.Errorf("failed to record table %s: %w", tc.Table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// FailRun marks a run as failed with cause.
func (l *Ledger) FailRun(ctx context.Context, id string, cause error) error {
	if l.db == nil {
		return errNotOpened
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE load_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(RunStatusFailed), formatTime(time.Now()), msg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

const selectRun = `SELECT id, target, status, started_at, completed_at, error, cast_fallbacks, unknown_penalties FROM load_runs`

// GetRun retrieves a run by ID.
func (l *Ledger) GetRun(ctx context.Context, id string) (*Run, error) {
	if l.db == nil {
		return nil, errNotOpened
	}

	run, err := scanRun(l.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := l.loadTables(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if l.db == nil {
		return nil, errNotOpened
	}

	rows, err := l.db.QueryContext(ctx, selectRun+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	_ = rows.Close()

	for _, run := range runs {
		if err := l.loadTables(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (l *Ledger) loadTables(ctx context.Context, run *Run) error {
	rows, err := l.db.QueryContext(ctx,
		`SELECT table_name, row_count FROM load_run_tables WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to get run tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var tc TableCount
		if err := rows.Scan(&tc.Table, &tc.Rows); err != nil {
			return fmt.Errorf("failed to scan run table: %w", err)
		}
		run.Tables = append(run.Tables, tc)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		status      string
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	err := row.Scan(&run.ID, &run.Target, &status, &startedAt, &completedAt, &errMsg,
		&run.CastFallbacks, &run.UnknownPenalties)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at %q: %w", completedAt.String, err)
		}
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}
