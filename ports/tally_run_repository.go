package ports

import (
	"context"

	"gopress/domain/core"
	"gopress/domain/run"
)

// TallyRunRepository stores evaluated node selections
type TallyRunRepository interface {
	// Save inserts or replaces a run
	Save(ctx context.Context, r *run.TallyRun) error

	// Get returns the run with the given ID or core.ErrRunNotFound
	Get(ctx context.Context, id core.RunID) (*run.TallyRun, error)

	// Recent returns up to limit runs, newest first
	Recent(ctx context.Context, limit int) ([]*run.TallyRun, error)

	// FindByFingerprint returns the newest run with identical inputs or
	// core.ErrRunNotFound
	FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.TallyRun, error)
}
