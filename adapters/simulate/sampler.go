package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gopress/domain/core"
	"gopress/domain/network"
	"gopress/domain/tally"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws random community matrices consistent with a model's edge
// signs. W[to][from] holds the effect of From on To.
type Sampler struct {
	nodes []string
	edges []network.Edge
	from  []int
	to    []int
	dists []distuv.Uniform
}

// NewSampler binds a model to a seeded random stream
func NewSampler(m *network.Model, seed uint64) (*Sampler, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	idx := m.Index()
	s := &Sampler{
		nodes: m.Nodes(),
		edges: append([]network.Edge(nil), m.Edges...),
		from:  make([]int, len(m.Edges)),
		to:    make([]int, len(m.Edges)),
		dists: make([]distuv.Uniform, len(m.Edges)),
	}
	for i, e := range m.Edges {
		s.from[i] = idx[e.From]
		s.to[i] = idx[e.To]
		switch e.Type {
		case network.EdgePositive:
			s.dists[i] = distuv.Uniform{Min: 0, Max: 1, Src: src}
		case network.EdgeNegative:
			s.dists[i] = distuv.Uniform{Min: -1, Max: 0, Src: src}
		case network.EdgeUnknown:
			s.dists[i] = distuv.Uniform{Min: -1, Max: 1, Src: src}
		case network.EdgeZero:
			s.dists[i] = distuv.Uniform{Min: 0, Max: 0, Src: src}
		}
	}
	return s, nil
}

// Nodes returns the node labels in matrix order
func (s *Sampler) Nodes() []string { return s.nodes }

// Edges returns the model edges in weight order
func (s *Sampler) Edges() []network.Edge { return s.edges }

// Sample fills w with a fresh community matrix and weights with the value
// drawn for each edge. w must be n x n and weights must have one slot per edge.
func (s *Sampler) Sample(w *mat.Dense, weights []float64) {
	w.Zero()
	for i := range s.edges {
		var v float64
		if s.edges[i].Type != network.EdgeZero {
			v = s.dists[i].Rand()
		}
		weights[i] = v
		w.Set(s.to[i], s.from[i], v)
	}
}

// Stable reports whether every eigenvalue of w has a negative real part.
func Stable(w mat.Matrix) bool {
	var eig mat.Eigen
	if ok := eig.Factorize(w, mat.EigenNone); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if real(v) >= 0 {
			return false
		}
	}
	return true
}

// Press returns the press response matrix -W^-1. Column j is the response
// of every node to a sustained increase of node j. Matrices whose
// condition number exceeds mat.ConditionTolerance are rejected with
// core.ErrIllConditioned, exactly singular ones with core.ErrSingular.
func Press(w mat.Matrix) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(w); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("failed to invert community matrix: %w", err)
		}
		if math.IsInf(float64(cond), 1) {
			return nil, core.ErrSingular
		}
		return nil, fmt.Errorf("%w: condition number %.4e", core.ErrIllConditioned, float64(cond))
	}
	inv.Scale(-1, &inv)
	return &inv, nil
}

// Validator rejects simulations whose press response to Perturbation
// disagrees with Monitoring.
type Validator struct {
	Perturbation tally.Perturbation
	Monitoring   tally.Monitoring
	Epsilon      float64
}

// Accept evaluates the validator against one press matrix
func (v Validator) Accept(press mat.Matrix) bool {
	acc := tally.NewAccumulator(v.Perturbation, v.Monitoring, v.Epsilon)
	_, _, ok := acc.Observe(press)
	return ok
}
