package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopress/adapters/simulate"
	"gopress/domain/ensemble"
	"gopress/domain/network"
	"gopress/internal"
	"gopress/ports"
)

// FileEnsembleSource loads a saved ensemble once and serves it afterwards
type FileEnsembleSource struct {
	path string
	once sync.Once
	ens  *ensemble.Ensemble
	err  error
}

var _ ports.EnsembleSource = (*FileEnsembleSource)(nil)

// NewFileEnsembleSource creates a source reading the JSON ensemble at path
func NewFileEnsembleSource(path string) *FileEnsembleSource {
	return &FileEnsembleSource{path: path}
}

// Ensemble returns the loaded ensemble
func (s *FileEnsembleSource) Ensemble(ctx context.Context) (*ensemble.Ensemble, error) {
	s.once.Do(func() {
		f, err := os.Open(s.path)
		if err != nil {
			s.err = fmt.Errorf("failed to open ensemble: %w", err)
			return
		}
		defer f.Close()
		s.ens, s.err = ensemble.Load(f)
		if s.err == nil {
			internal.DefaultLogger.Info("[EnsembleSource] loaded %d simulations over %d nodes from %s",
				s.ens.Size(), len(s.ens.Nodes), s.path)
		}
	})
	return s.ens, s.err
}

// SimulatedEnsembleSource simulates a model on first use
type SimulatedEnsembleSource struct {
	model  *network.Model
	config simulate.Config
	once   sync.Once
	ens    *ensemble.Ensemble
	err    error
}

var _ ports.EnsembleSource = (*SimulatedEnsembleSource)(nil)

// NewSimulatedEnsembleSource creates a source that runs the simulator lazily
func NewSimulatedEnsembleSource(model *network.Model, config simulate.Config) *SimulatedEnsembleSource {
	return &SimulatedEnsembleSource{model: model, config: config}
}

// Ensemble runs the simulation the first time it is called. A failed
// simulation is not retried.
func (s *SimulatedEnsembleSource) Ensemble(ctx context.Context) (*ensemble.Ensemble, error) {
	s.once.Do(func() {
		sim, err := simulate.NewSimulator(s.model, s.config)
		if err != nil {
			s.err = err
			return
		}
		s.ens, s.err = sim.Run(ctx)
	})
	return s.ens, s.err
}

// StaticEnsembleSource serves an ensemble already in memory
type StaticEnsembleSource struct {
	ens *ensemble.Ensemble
}

// NewStaticEnsembleSource wraps ens
func NewStaticEnsembleSource(ens *ensemble.Ensemble) StaticEnsembleSource {
	return StaticEnsembleSource{ens: ens}
}

// Ensemble returns the wrapped ensemble
func (s StaticEnsembleSource) Ensemble(context.Context) (*ensemble.Ensemble, error) {
	return s.ens, nil
}
