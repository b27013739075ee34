// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

const (
	rootSource = "source"
	rootOutput = "output"
)

// SQLite stores state in a SQLite database. Every Write replaces the stored
// state inside one transaction.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and ensures the schema
// exists.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS roots (
			name TEXT PRIMARY KEY,
			path TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS processed_files (
			path TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Read loads roots and processed files. An empty database is a first run.
func (s *SQLite) Read(ctx context.Context) (types.PersistedState, error) {
	st := types.NewPersistedState()

	rows, err := s.db.QueryContext(ctx, `SELECT name, path FROM roots`)
	if err != nil {
		return types.PersistedState{}, fmt.Errorf("querying roots: %w", err)
	}
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			rows.Close()
			return types.PersistedState{}, fmt.Errorf("scanning root: %w", err)
		}
		switch name {
		case rootSource:
			st.OutputsPath = path
		case rootOutput:
			st.PromptsPath = path
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return types.PersistedState{}, fmt.Errorf("reading roots: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT path, fingerprint FROM processed_files`)
	if err != nil {
		return types.PersistedState{}, fmt.Errorf("querying processed files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path, fp string
		if err := rows.Scan(&path, &fp); err != nil {
			return types.PersistedState{}, fmt.Errorf("scanning processed file: %w", err)
		}
		st.ProcessedFiles[path] = fp
	}
	if err := rows.Err(); err != nil {
		return types.PersistedState{}, fmt.Errorf("reading processed files: %w", err)
	}
	return st, nil
}

// Write replaces roots and processed files in a single transaction.
func (s *SQLite) Write(ctx context.Context, st types.PersistedState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	roots := map[string]string{
		rootSource: st.OutputsPath,
		rootOutput: st.PromptsPath,
	}
	for name, path := range roots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO roots (name, path) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET path=excluded.path`,
			name, path,
		)
		if err != nil {
			return fmt.Errorf("upserting root %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM processed_files`); err != nil {
		return fmt.Errorf("clearing processed files: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO processed_files (path, fingerprint) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for path, fp := range st.ProcessedFiles {
		if _, err := stmt.ExecContext(ctx, path, fp); err != nil {
			return fmt.Errorf("inserting %s: %w", path, err)
		}
	}

	return tx.Commit()
}
