package ports

import (
	"context"

	"gopress/domain/ensemble"
)

// EnsembleSource supplies the simulations a tally is evaluated over.
// Implementations return the same read-only ensemble on every call.
type EnsembleSource interface {
	Ensemble(ctx context.Context) (*ensemble.Ensemble, error)
}
