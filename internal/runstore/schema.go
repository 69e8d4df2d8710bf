package runstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] moves the database from user_version i to i+1.
var migrations = []string{
	schemaSQL,
}

// ErrSchemaMismatch reports a history database written by a newer iconforge.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrate brings the database up to len(migrations), tracking progress in
// SQLite's user_version header field.
func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	latest := len(migrations)
	if current > latest {
		return fmt.Errorf("%w: %s is at version %d, this build knows %d",
			ErrSchemaMismatch, s.path, current, latest)
	}
	for v := current; v < latest; v++ {
		if err := s.step(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) step(ctx context.Context, from int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", from+1, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migrations[from]); err != nil {
		return fmt.Errorf("apply migration %d: %w", from+1, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return fmt.Errorf("stamp schema version %d: %w", from+1, err)
	}
	return tx.Commit()
}
