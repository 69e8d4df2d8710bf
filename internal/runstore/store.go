package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"iconforge/internal/config"
)

// Store manages the run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy covers two runs exporting different sources at once.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a run and its exported files in one transaction.
func (s *Store) Record(ctx context.Context, run Run, exports []Export) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	warnings, err := json.Marshal(run.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (
                id, source_path, base_name, output_root, mode, label, status,
                error_kind, error_message, planned, exported, failed_units,
                warnings_json, started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.SourcePath,
			nullableString(run.BaseName),
			nullableString(run.OutputRoot),
			nullableString(run.Mode),
			nullableString(run.Label),
			run.Status,
			nullableString(run.ErrorKind),
			nullableString(run.ErrorMessage),
			run.Planned,
			run.Exported,
			run.FailedUnits,
			string(warnings),
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, e := range exports {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exports (run_id, unit, variant, color_space, format, size, path, duration_ms)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, e.Unit, e.Variant, e.ColorSpace, e.Format, nullableInt(e.Size), e.Path, e.Duration.Milliseconds(),
			); err != nil {
				return fmt.Errorf("insert export: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit run: %w", err)
		}
		return nil
	})
}

const runColumns = "id, source_path, base_name, output_root, mode, label, status, error_kind, error_message, planned, exported, failed_units, warnings_json, started_at, finished_at"

// Get fetches a run by id. It returns nil when no run matches.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Recent lists the newest runs first. A non-empty source restricts the list
// to runs of that source document.
func (s *Store) Recent(ctx context.Context, source string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if source != "" {
		query += ` WHERE source_path = ?`
		args = append(args, source)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// Exports lists the files written by a run in export order.
func (s *Store) Exports(ctx context.Context, runID string) ([]Export, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, unit, variant, color_space, format, size, path, duration_ms
         FROM exports WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var out []Export
	for rows.Next() {
		var (
			e        Export
			size     sql.NullInt64
			duration int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Unit, &e.Variant, &e.ColorSpace, &e.Format, &size, &e.Path, &duration); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if size.Valid {
			v := int(size.Int64)
			e.Size = &v
		}
		e.Duration = time.Duration(duration) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats counts runs by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Prune deletes all but the newest keep runs and their exports.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin prune tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`DELETE FROM runs WHERE id NOT IN (
                SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
            )`, keep)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		// foreign_keys is per connection, so orphans are removed explicitly.
		if _, err := tx.ExecContext(ctx, `DELETE FROM exports WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
			return fmt.Errorf("prune exports: %w", err)
		}
		return tx.Commit()
	})
	return removed, err
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		baseName     sql.NullString
		outputRoot   sql.NullString
		mode         sql.NullString
		label        sql.NullString
		status       string
		errorKind    sql.NullString
		errorMessage sql.NullString
		warnings     sql.NullString
		startedRaw   string
		finishedRaw  string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.SourcePath,
		&baseName,
		&outputRoot,
		&mode,
		&label,
		&status,
		&errorKind,
		&errorMessage,
		&run.Planned,
		&run.Exported,
		&run.FailedUnits,
		&warnings,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.BaseName = baseName.String
	run.OutputRoot = outputRoot.String
	run.Mode = mode.String
	run.Label = label.String
	run.Status = Status(status)
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	if warnings.Valid && warnings.String != "" {
		if err := json.Unmarshal([]byte(warnings.String), &run.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	if t, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = t
	}
	if t, err := parseTimeString(finishedRaw); err == nil {
		run.FinishedAt = t
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
