package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Ensure the SQLite types satisfy the collaborator interfaces.
var (
	_ Opener = (*SQLite)(nil)
	_ Handle = (*sqliteHandle)(nil)
)

// SQLite opens a SQLite database at a fixed path (":memory:" works too).
type SQLite struct {
	path string
}

// NewSQLite creates an opener for the database at path. The file is not
// touched until Initialize is called by the elected leader.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// Initialize opens the database, verifies the connection and applies the
// required pragmas.
//
// The connection pool is capped at a single connection: SQLite supports
// one writer at a time, and the single-leader design funnels every
// statement through this handle anyway.
func (s *SQLite) Initialize(_ context.Context) (Handle, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	return &sqliteHandle{db: db}, nil
}

// applyPragmas sets the required SQLite configuration:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// sqliteHandle is the leader's database handle.
type sqliteHandle struct {
	db *sql.DB
}

// Execute runs a statement and encodes its result set.
//
// The error path intentionally returns the driver's text untouched: the
// protocol forwards engine errors verbatim to the requesting worker.
func (h *sqliteHandle) Execute(ctx context.Context, query string) (string, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	return encodeRows(rows)
}

// Close closes the underlying database.
func (h *sqliteHandle) Close() error {
	return h.db.Close()
}
