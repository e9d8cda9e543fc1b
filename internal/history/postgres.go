// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// PostgresStore keeps runs in a shared Postgres database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the schema if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "connecting to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "pinging postgres")
	}

	s := &PostgresStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "creating schema")
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS toolscout_runs (
			id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			duration_ms BIGINT NOT NULL,
			query TEXT NOT NULL,
			record JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_toolscout_runs_created_at ON toolscout_runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Save upserts run.
func (s *PostgresStore) Save(ctx context.Context, run Run) error {
	data, err := json.Marshal(run.Record)
	if err != nil {
		return eris.Wrap(err, "marshaling record")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO toolscout_runs (id, created_at, duration_ms, query, record)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			duration_ms = EXCLUDED.duration_ms,
			query = EXCLUDED.query,
			record = EXCLUDED.record
	`, run.ID.String(), run.CreatedAt.UTC(), run.Duration.Milliseconds(), run.Record.Query, data)
	if err != nil {
		return eris.Wrapf(err, "saving run %s", run.ID)
	}
	return nil
}

// Get returns the run with id.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, created_at, duration_ms, record FROM toolscout_runs WHERE id = $1
	`, id.String())
	run, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, eris.Wrapf(ErrNotFound, "run %s", id)
	}
	return run, err
}

// List returns runs newest first.
func (s *PostgresStore) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	stmt := `SELECT id::text, created_at, duration_ms, record FROM toolscout_runs`
	args := []any{}
	if q := strings.TrimSpace(opts.Query); q != "" {
		stmt += ` WHERE strpos(lower(query), lower($1)) > 0 ORDER BY created_at DESC LIMIT $2`
		args = append(args, q, opts.limit())
	} else {
		stmt += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, opts.limit())
	}

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, eris.Wrap(err, "listing runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "iterating runs")
}

func scanPgRun(row pgx.Row) (Run, error) {
	var (
		id         string
		createdAt  time.Time
		durationMS int64
		record     []byte
	)
	if err := row.Scan(&id, &createdAt, &durationMS, &record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, eris.Wrap(err, "scanning run")
	}

	run := Run{
		CreatedAt: createdAt.UTC(),
		Duration:  time.Duration(durationMS) * time.Millisecond,
	}
	var err error
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, eris.Wrapf(err, "parsing run id %q", id)
	}
	if err := json.Unmarshal(record, &run.Record); err != nil {
		return Run{}, eris.Wrapf(err, "decoding run %s", id)
	}
	return run, nil
}
