package engine

import (
	"context"
	"time"

	"gopress/domain/tally"
	"gopress/internal"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Config sizes the worker pool
type Config struct {
	Workers   int // concurrent chunks, 0 means 1
	ChunkSize int // matrices per chunk, 0 means 256
}

// Request is one tally evaluation
type Request struct {
	Perturbation tally.Perturbation
	Monitoring   tally.Monitoring
	Epsilon      float64
}

// Result is a tally plus the bookkeeping the UI and reports show
type Result struct {
	Table      tally.Table
	Consistent int   // matrices that matched monitoring
	Total      int   // matrices evaluated
	Matches    []int // indices of consistent matrices, ascending
}

// Engine evaluates tallies over large ensembles by splitting them into
// chunks that are accumulated independently and summed.
type Engine struct {
	config Config
	logger *internal.Logger
}

// New creates an engine
func New(config Config) *Engine {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 256
	}
	return &Engine{config: config, logger: internal.DefaultLogger}
}

type chunkResult struct {
	acc     *tally.Accumulator
	matches []int
}

// Evaluate computes the tally of req over matrices. The result equals
// tally.ComputeTally on the same inputs regardless of worker count.
func (e *Engine) Evaluate(ctx context.Context, matrices []mat.Matrix, req Request) (*Result, error) {
	if err := tally.Validate(matrices, req.Perturbation, req.Monitoring, req.Epsilon); err != nil {
		return nil, err
	}
	start := time.Now()

	chunks := (len(matrices) + e.config.ChunkSize - 1) / e.config.ChunkSize
	partials := make([]chunkResult, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)
	for c := 0; c < chunks; c++ {
		lo := c * e.config.ChunkSize
		hi := min(lo+e.config.ChunkSize, len(matrices))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			acc := tally.NewAccumulator(req.Perturbation, req.Monitoring, req.Epsilon)
			var matches []int
			for k := lo; k < hi; k++ {
				if _, _, ok := acc.Observe(matrices[k]); ok {
					matches = append(matches, k)
				}
			}
			partials[c] = chunkResult{acc: acc, matches: matches}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Table: tally.NewTable(len(req.Perturbation)),
		Total: len(matrices),
	}
	for _, p := range partials {
		if err := result.Table.Add(p.acc.Table()); err != nil {
			return nil, err
		}
		result.Consistent += p.acc.Consistent()
		result.Matches = append(result.Matches, p.matches...)
	}

	e.logger.Debug("[TallyEngine] %d/%d consistent over %d chunks in %.2fms",
		result.Consistent, result.Total, chunks, float64(time.Since(start).Nanoseconds())/1e6)
	return result, nil
}

// Empty reports whether there is nothing to render
func (r *Result) Empty() bool {
	return r == nil || r.Consistent == 0
}
