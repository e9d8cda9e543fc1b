// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records completed research runs and reads them back.
// Runs that failed or were cancelled are never saved.
package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/pdiddy/toolscout/pkg/types"
)

// ErrNotFound is returned by Get when no run has the requested ID.
var ErrNotFound = eris.New("run not found")

const defaultListLimit = 20

// Run is one completed pipeline run.
type Run struct {
	ID        uuid.UUID          `json:"id" yaml:"id"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	Duration  time.Duration      `json:"duration" yaml:"duration"`
	Record    types.ResultRecord `json:"record" yaml:"record"`
}

// NewRun stamps rec with a fresh ID. started is when the run began.
func NewRun(rec types.ResultRecord, started time.Time) Run {
	return Run{
		ID:        uuid.New(),
		CreatedAt: started.UTC(),
		Duration:  time.Since(started),
		Record:    rec,
	}
}

// ListOptions filters List results.
type ListOptions struct {
	// Query keeps runs whose query contains this text, case-insensitively.
	Query string

	// Limit caps the result count. Zero uses 20.
	Limit int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return defaultListLimit
	}
	return o.Limit
}

// Store persists runs. List returns the newest runs first.
type Store interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, id uuid.UUID) (Run, error)
	List(ctx context.Context, opts ListOptions) ([]Run, error)
	Close() error
}

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg types.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case types.HistorySQLite, "":
		path := cfg.Path
		if path == "" {
			var err error
			if path, err = DefaultPath(); err != nil {
				return nil, err
			}
		}
		return OpenSQLite(path)
	case types.HistoryPostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, eris.New("postgres history backend requires a DSN")
		}
		return OpenPostgres(ctx, cfg.DSN)
	case types.HistoryNone:
		return Discard{}, nil
	default:
		return nil, eris.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// DefaultPath returns ~/.local/share/toolscout/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "locating home directory")
	}
	return filepath.Join(home, ".local", "share", "toolscout", "history.db"), nil
}

// Discard is a Store that keeps nothing.
type Discard struct{}

func (Discard) Save(context.Context, Run) error { return nil }

func (Discard) Get(_ context.Context, id uuid.UUID) (Run, error) {
	return Run{}, eris.Wrapf(ErrNotFound, "run %s", id)
}

func (Discard) List(context.Context, ListOptions) ([]Run, error) { return []Run{}, nil }

func (Discard) Close() error { return nil }
