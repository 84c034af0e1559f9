package tally

import (
	"fmt"
	"math"

	"gopress/domain/core"

	"gonum.org/v1/gonum/mat"
)

// DefaultEpsilon is the tolerance below which a response counts as zero
const DefaultEpsilon = 1e-5

// Classify maps a response to its sign. Magnitudes at or below eps are
// zero. NaN responses classify as zero.
func Classify(x, eps float64) Sign {
	switch {
	case math.Abs(x) <= eps || math.IsNaN(x):
		return Zero
	case x > 0:
		return Positive
	default:
		return Negative
	}
}

// Consistent reports whether every known monitored outcome matches the
// prediction. len(predicted) must equal len(monitoring).
func Consistent(predicted []Sign, monitoring Monitoring) bool {
	for i, obs := range monitoring {
		if !obs.Matches(predicted[i]) {
			return false
		}
	}
	return true
}

// Validate checks the inputs of a tally and returns an error wrapping
// core.ErrInvalidDimension or core.ErrInvalidArgument.
func Validate(matrices []mat.Matrix, perturbation Perturbation, monitoring Monitoring, eps float64) error {
	if math.IsNaN(eps) || eps < 0 {
		return core.NewArgumentError("epsilon", fmt.Sprintf("must be non-negative, got %v", eps))
	}
	n := len(perturbation)
	if n == 0 {
		return core.NewDimensionError("perturbation", 0, 1)
	}
	if len(monitoring) != n {
		return core.NewDimensionError("monitoring", len(monitoring), n)
	}
	for i, s := range perturbation {
		if !s.Valid() {
			return core.NewArgumentError(fmt.Sprintf("perturbation[%d]", i), fmt.Sprintf("is %v", s))
		}
	}
	for i, obs := range monitoring {
		if s, ok := obs.Sign(); ok && !s.Valid() {
			return core.NewArgumentError(fmt.Sprintf("monitoring[%d]", i), fmt.Sprintf("is %v", s))
		}
	}
	for k, a := range matrices {
		if a == nil {
			return core.NewArgumentError(fmt.Sprintf("matrix %d", k), "is nil")
		}
		r, c := a.Dims()
		if r != n {
			return core.NewDimensionError(fmt.Sprintf("matrix %d rows", k), r, n)
		}
		if c != n {
			return core.NewDimensionError(fmt.Sprintf("matrix %d columns", k), c, n)
		}
	}
	return nil
}

// Vector converts the perturbation into a dense column vector
func (p Perturbation) Vector() *mat.VecDense {
	data := make([]float64, len(p))
	for i, s := range p {
		data[i] = float64(s)
	}
	return mat.NewVecDense(len(data), data)
}

// Accumulator tallies one matrix at a time. It is not safe for concurrent
// use; parallel callers give each worker its own and merge the tables.
type Accumulator struct {
	perturbation *mat.VecDense
	monitoring   Monitoring
	eps          float64

	table      Table
	consistent int
	observed   int

	raw       *mat.VecDense
	predicted []Sign
}

// NewAccumulator prepares an accumulator for already validated inputs.
func NewAccumulator(perturbation Perturbation, monitoring Monitoring, eps float64) *Accumulator {
	n := len(perturbation)
	return &Accumulator{
		perturbation: perturbation.Vector(),
		monitoring:   monitoring,
		eps:          eps,
		table:        NewTable(n),
		raw:          mat.NewVecDense(n, nil),
		predicted:    make([]Sign, n),
	}
}

// Observe evaluates one community matrix. It returns the raw response, the
// predicted signs and whether the matrix was consistent with monitoring.
// The returned slices are reused by the next call.
func (a *Accumulator) Observe(m mat.Matrix) ([]float64, []Sign, bool) {
	a.raw.MulVec(m, a.perturbation)
	raw := a.raw.RawVector().Data
	for i, x := range raw {
		a.predicted[i] = Classify(x, a.eps)
	}
	a.observed++
	if !Consistent(a.predicted, a.monitoring) {
		return raw, a.predicted, false
	}
	a.consistent++
	for i, s := range a.predicted {
		a.table.Counts[i][s.Column()]++
	}
	return raw, a.predicted, true
}

// Table returns the accumulated counts
func (a *Accumulator) Table() Table { return a.table }

// Consistent returns how many observed matrices matched monitoring
func (a *Accumulator) Consistent() int { return a.consistent }

// Observed returns how many matrices have been evaluated
func (a *Accumulator) Observed() int { return a.observed }

// ComputeTally counts, for every node, the predicted outcome signs of the
// matrices whose prediction agrees with the monitored outcomes. An empty
// ensemble yields a zero table.
func ComputeTally(matrices []mat.Matrix, perturbation Perturbation, monitoring Monitoring, eps float64) (Table, error) {
	if err := Validate(matrices, perturbation, monitoring, eps); err != nil {
		return Table{}, err
	}
	acc := NewAccumulator(perturbation, monitoring, eps)
	for _, m := range matrices {
		acc.Observe(m)
	}
	return acc.Table(), nil
}
