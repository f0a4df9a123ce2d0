package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/queryir"
)

// Store wraps a SQLite database used to execute compiled commands.
type Store struct {
	db *sqlx.DB
}

// Row is one result row keyed by column name. TEXT and BLOB columns are
// returned as strings.
type Row map[string]any

// Open creates or opens a SQLite database at the given path.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; an in-memory database is
	// also private to its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Seed runs raw statements in one transaction. It is meant for DDL and
// fixture rows; compiled commands go through Exec and Query.
func (s *Store) Seed(ctx context.Context, stmts ...string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Exec runs a compiled INSERT, UPDATE or DELETE and returns the number of
// affected rows.
func (s *Store) Exec(ctx context.Context, cmd command.Bound) (int64, error) {
	if cmd.Operation() == queryir.OpSelect {
		return 0, fmt.Errorf("exec: %s command must be run with Query", cmd.Operation())
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(cmd.Text()), cmd.Args()...)
	if err != nil {
		return 0, fmt.Errorf("exec %s: %w", cmd.Operation(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Query runs a compiled SELECT and returns its rows in result order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, cmd command.Bound) ([]Row, error) {
	if cmd.Operation() != queryir.OpSelect {
		return nil, fmt.Errorf("query: %s command must be run with Exec", cmd.Operation())
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(cmd.Text()), cmd.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		out = append(out, Row(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.Get(&value, "PRAGMA "+name); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
