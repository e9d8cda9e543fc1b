// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// sqliteDriver is go-sqlite3 with a fold(text) function that lowercases
// with Unicode rules; SQLite's own lower() only folds ASCII.
const sqliteDriver = "sqlite3_toolscout"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// SQLiteStore keeps runs in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrap(err, "creating history directory")
	}

	db, err := sql.Open(sqliteDriver, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating schema")
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			query TEXT NOT NULL,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// Save inserts run. Saving the same ID twice replaces the earlier row.
func (s *SQLiteStore) Save(ctx context.Context, run Run) error {
	data, err := json.Marshal(run.Record)
	if err != nil {
		return eris.Wrap(err, "marshaling record")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, created_at, duration_ms, query, record)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), run.CreatedAt.UTC().UnixNano(), run.Duration.Milliseconds(),
		run.Record.Query, string(data),
	)
	if err != nil {
		return eris.Wrapf(err, "saving run %s", run.ID)
	}
	return nil
}

// Get returns the run with id.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, duration_ms, record FROM runs WHERE id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, eris.Wrapf(ErrNotFound, "run %s", id)
	}
	return run, err
}

// List returns runs newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, created_at, duration_ms, record FROM runs`)
	if q := strings.TrimSpace(opts.Query); q != "" {
		qb.WriteString(` WHERE fold(query) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	qb.WriteString(` ORDER BY created_at DESC LIMIT ?`)
	args = append(args, opts.limit())

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "listing runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "iterating runs")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		id         string
		createdAt  int64
		durationMS int64
		record     string
	)
	if err := sc.Scan(&id, &createdAt, &durationMS, &record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, eris.Wrap(err, "scanning run")
	}

	run := Run{
		CreatedAt: time.Unix(0, createdAt).UTC(),
		Duration:  time.Duration(durationMS) * time.Millisecond,
	}
	var err error
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, eris.Wrapf(err, "parsing run id %q", id)
	}
	if err := json.Unmarshal([]byte(record), &run.Record); err != nil {
		return Run{}, eris.Wrapf(err, "decoding run %s", id)
	}
	return run, nil
}

// escapeLike escapes LIKE wildcards with a backslash.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
