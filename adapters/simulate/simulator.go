package simulate

import (
	"context"
	"fmt"
	"time"

	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/network"
	"gopress/domain/tally"
	"gopress/internal"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Config controls ensemble generation
type Config struct {
	Samples     int         // accepted simulations wanted
	MaxAttempts int         // cap on drawn matrices, 0 means 1000 per sample
	Seed        uint64      // base seed, worker k uses Seed+k
	Workers     int         // parallel samplers, 0 means 1
	Validators  []Validator // every validator must accept a simulation
}

// DefaultConfig returns sensible defaults for interactive use
func DefaultConfig() Config {
	return Config{
		Samples: 1000,
		Seed:    42,
		Workers: 4,
	}
}

// Simulator produces ensembles of stable press matrices for a model
type Simulator struct {
	model  *network.Model
	config Config
	logger *internal.Logger
}

// NewSimulator validates the configuration against the model
func NewSimulator(model *network.Model, config Config) (*Simulator, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if config.Samples < 0 {
		return nil, core.NewArgumentError("samples", "must be non-negative")
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1000 * max(config.Samples, 1)
	}
	n := len(model.Nodes())
	for i, v := range config.Validators {
		if err := tally.Validate(nil, v.Perturbation, v.Monitoring, v.Epsilon); err != nil {
			return nil, fmt.Errorf("validator %d: %w", i, err)
		}
		if len(v.Perturbation) != n {
			return nil, core.NewDimensionError(fmt.Sprintf("validator %d perturbation", i), len(v.Perturbation), n)
		}
	}
	return &Simulator{model: model, config: config, logger: internal.DefaultLogger}, nil
}

type workerResult struct {
	press    []*mat.Dense
	weights  [][]float64
	attempts int
}

// Run draws community matrices until Samples stable, validated simulations
// are accepted. Work is split into fixed per-worker quotas so a given
// configuration always yields the same ensemble.
func (s *Simulator) Run(ctx context.Context) (*ensemble.Ensemble, error) {
	start := time.Now()
	workers := min(s.config.Workers, max(s.config.Samples, 1))
	results := make([]workerResult, workers)

	g, ctx := errgroup.WithContext(ctx)
	for k := 0; k < workers; k++ {
		quota := share(s.config.Samples, workers, k)
		attempts := share(s.config.MaxAttempts, workers, k)
		g.Go(func() error {
			res, err := s.runWorker(ctx, s.config.Seed+uint64(k), quota, attempts)
			if err != nil {
				return err
			}
			results[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ens := &ensemble.Ensemble{
		ID:    core.EnsembleID(core.NewID()),
		Nodes: s.model.Nodes(),
		Edges: append([]network.Edge(nil), s.model.Edges...),
	}
	for _, r := range results {
		ens.Press = append(ens.Press, r.press...)
		ens.Weights = append(ens.Weights, r.weights...)
		ens.Attempts += r.attempts
	}
	ens.Accepted = len(ens.Press)

	s.logger.Info("[Simulator] accepted %d of %d draws in %.2fms (%d workers)",
		ens.Accepted, ens.Attempts, float64(time.Since(start).Nanoseconds())/1e6, workers)
	return ens, nil
}

func (s *Simulator) runWorker(ctx context.Context, seed uint64, quota, maxAttempts int) (workerResult, error) {
	var res workerResult
	if quota == 0 {
		return res, nil
	}
	sampler, err := NewSampler(s.model, seed)
	if err != nil {
		return res, err
	}
	n := len(sampler.Nodes())
	w := mat.NewDense(n, n, nil)

	for len(res.press) < quota {
		if res.attempts >= maxAttempts {
			return res, fmt.Errorf("%w: accepted %d of %d after %d attempts",
				core.ErrUnstable, len(res.press), quota, res.attempts)
		}
		if res.attempts%256 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		res.attempts++

		weights := make([]float64, len(sampler.Edges()))
		sampler.Sample(w, weights)
		if !Stable(w) {
			continue
		}
		press, err := Press(w)
		if err != nil {
			s.logger.Trace("[Simulator] skipping draw: %v", err)
			continue
		}
		if !s.accepts(press) {
			continue
		}
		res.press = append(res.press, press)
		res.weights = append(res.weights, weights)
	}
	return res, nil
}

func (s *Simulator) accepts(press *mat.Dense) bool {
	for _, v := range s.config.Validators {
		if !v.Accept(press) {
			return false
		}
	}
	return true
}

// share splits total into parts, giving the remainder to the first workers
func share(total, parts, k int) int {
	q := total / parts
	if k < total%parts {
		q++
	}
	return q
}
