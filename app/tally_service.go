package app

import (
	"context"
	"fmt"
	"time"

	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/run"
	"gopress/domain/selector"
	"gopress/internal"
	"gopress/internal/engine"
	"gopress/ports"
)

// TallyService evaluates node selections against an ensemble and keeps the
// resulting runs.
type TallyService struct {
	source ports.EnsembleSource
	engine *engine.Engine
	repo   ports.TallyRunRepository
	logger *internal.Logger
	now    func() time.Time
}

// NewTallyService wires the service
func NewTallyService(source ports.EnsembleSource, eng *engine.Engine, repo ports.TallyRunRepository) *TallyService {
	return &TallyService{
		source: source,
		engine: eng,
		repo:   repo,
		logger: internal.DefaultLogger,
		now:    time.Now,
	}
}

// Ensemble exposes the ensemble the service evaluates against
func (s *TallyService) Ensemble(ctx context.Context) (*ensemble.Ensemble, error) {
	return s.source.Ensemble(ctx)
}

// NewSelector builds a dialog for the ensemble's nodes and edges
func (s *TallyService) NewSelector(ctx context.Context) (*selector.NodeSelector, error) {
	ens, err := s.source.Ensemble(ctx)
	if err != nil {
		return nil, err
	}
	return selector.NewNodeSelector(ens.Nodes, ens.Edges), nil
}

// Run tallies sel over the ensemble and stores the run. Edge weights are
// summarised when the selection asks for them and the ensemble carries
// weights.
func (s *TallyService) Run(ctx context.Context, sel selector.Selection) (*run.TallyRun, error) {
	ens, err := s.source.Ensemble(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ensemble: %w", err)
	}

	result, err := s.engine.Evaluate(ctx, ens.Matrices(), engine.Request{
		Perturbation: sel.Perturbation,
		Monitoring:   sel.Monitoring,
		Epsilon:      sel.Epsilon,
	})
	if err != nil {
		return nil, err
	}

	tr := &run.TallyRun{
		ID:           core.NewRunID(),
		CreatedAt:    s.now().UTC(),
		EnsembleID:   ens.ID,
		Fingerprint:  run.NewRunFingerprint(ens.Fingerprint(), sel.Perturbation, sel.Monitoring, sel.Epsilon),
		Nodes:        append([]string(nil), ens.Nodes...),
		Perturbation: sel.Perturbation,
		Monitoring:   sel.Monitoring,
		Epsilon:      sel.Epsilon,
		Table:        result.Table,
		Consistent:   result.Consistent,
		Total:        result.Total,
	}

	if sel.ShowWeights && len(sel.Edges) > 0 && ens.Weights != nil {
		tr.Weights, err = engine.SummarizeWeights(ens, result.Matches, sel.Edges)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, fmt.Errorf("failed to save tally run: %w", err)
	}

	s.logger.Info("[TallyService] run %s: %d/%d simulations consistent (eps=%g)",
		tr.ID, tr.Consistent, tr.Total, tr.Epsilon)
	return tr, nil
}

// Get returns a stored run
func (s *TallyService) Get(ctx context.Context, id core.RunID) (*run.TallyRun, error) {
	return s.repo.Get(ctx, id)
}

// Recent returns up to limit stored runs, newest first
func (s *TallyService) Recent(ctx context.Context, limit int) ([]*run.TallyRun, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.Recent(ctx, limit)
}
