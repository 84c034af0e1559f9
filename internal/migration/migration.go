package migration

import (
	"context"

	"gopress/internal"
	"gopress/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		logger:  internal.DefaultLogger,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createTallyRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create tally_runs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createTallyRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, TallyRunsSchema)
	return err
}

// TallyRunsSchema is the DDL of the run store
const TallyRunsSchema = `
		CREATE TABLE IF NOT EXISTS tally_runs (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			ensemble_id TEXT NOT NULL,
			ensemble_hash TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			selection TEXT NOT NULL,
			nodes JSONB NOT NULL,
			perturbation JSONB NOT NULL,
			monitoring JSONB NOT NULL,
			epsilon DOUBLE PRECISION NOT NULL CHECK (epsilon >= 0),
			counts JSONB NOT NULL,
			consistent INTEGER NOT NULL CHECK (consistent >= 0),
			total INTEGER NOT NULL CHECK (total >= consistent),
			weights JSONB
		)
	`

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_tally_runs_created_at ON tally_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_tally_runs_fingerprint ON tally_runs(fingerprint)",
		"CREATE INDEX IF NOT EXISTS idx_tally_runs_ensemble ON tally_runs(ensemble_id)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			r.logger.Warn("[Migration] failed to create index: %v", err)
		}
	}

	return nil
}
