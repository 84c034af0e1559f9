package tally

import (
	"errors"
	"math/rand"
	"testing"

	"gopress/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func identity2() mat.Matrix {
	return mat.NewDense(2, 2, []float64{1, 0, 0, 1})
}

func randomEnsemble(rng *rand.Rand, count, n int) []mat.Matrix {
	out := make([]mat.Matrix, count)
	for k := range out {
		data := make([]float64, n*n)
		for i := range data {
			// Include exact zeros so the zero column gets exercised
			data[i] = float64(rng.Intn(5) - 2)
		}
		out[k] = mat.NewDense(n, n, data)
	}
	return out
}

func TestComputeTally_IdentityMatchesMonitoring(t *testing.T) {
	table, err := ComputeTally(
		[]mat.Matrix{identity2()},
		Perturbation{Positive, Negative},
		Monitoring{Known(Positive), Known(Negative)},
		1e-5,
	)
	require.NoError(t, err)
	assert.Equal(t, [][3]int{{0, 0, 1}, {1, 0, 0}}, table.Counts)
}

func TestComputeTally_UnknownMonitoringAutoMatches(t *testing.T) {
	table, err := ComputeTally(
		[]mat.Matrix{identity2()},
		Perturbation{Positive, Negative},
		Monitoring{Known(Positive), Unknown},
		1e-5,
	)
	require.NoError(t, err)
	assert.Equal(t, [][3]int{{0, 0, 1}, {1, 0, 0}}, table.Counts)
}

func TestComputeTally_MismatchExcludesMatrix(t *testing.T) {
	table, err := ComputeTally(
		[]mat.Matrix{identity2()},
		Perturbation{Positive, Negative},
		Monitoring{Known(Negative), Unknown},
		1e-5,
	)
	require.NoError(t, err)
	assert.True(t, table.IsZero())
	assert.Equal(t, 2, table.Rows())
}

func TestComputeTally_EmptyEnsembleIsZeroTable(t *testing.T) {
	table, err := ComputeTally(nil, Perturbation{Positive, Zero, Negative}, UnknownMonitoring(3), 1e-5)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Rows())
	assert.True(t, table.IsZero())
	assert.Equal(t, [][3]int{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}, table.Counts)
}

func TestComputeTally_TinyResponseIsZero(t *testing.T) {
	m := mat.NewDense(1, 1, []float64{0.0000001})
	table, err := ComputeTally([]mat.Matrix{m}, Perturbation{Positive}, UnknownMonitoring(1), 1e-5)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Count(0, Zero))
}

func TestClassify_BoundaryBelongsToZero(t *testing.T) {
	eps := 0.25
	assert.Equal(t, Zero, Classify(0.25, eps))
	assert.Equal(t, Zero, Classify(-0.25, eps))
	assert.Equal(t, Positive, Classify(0.2500001, eps))
	assert.Equal(t, Negative, Classify(-0.2500001, eps))
	assert.Equal(t, Zero, Classify(0, 0))
	assert.Equal(t, Positive, Classify(1e-300, 0))

	m := mat.NewDense(1, 1, []float64{eps})
	table, err := ComputeTally([]mat.Matrix{m}, Perturbation{Positive}, UnknownMonitoring(1), eps)
	require.NoError(t, err)
	assert.Equal(t, [][3]int{{0, 1, 0}}, table.Counts)
}

func TestComputeTally_AllUnknownCountsEveryMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n, count = 4, 50
	matrices := randomEnsemble(rng, count, n)

	table, err := ComputeTally(matrices, Perturbation{Positive, Zero, Negative, Positive}, UnknownMonitoring(n), 1e-5)
	require.NoError(t, err)
	assert.Equal(t, count*n, table.Total())
}

func TestComputeTally_TotalEqualsConsistentTimesNodes(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 3
	matrices := randomEnsemble(rng, 200, n)
	perturbation := Perturbation{Positive, Zero, Zero}
	monitoring := Monitoring{Unknown, Known(Positive), Unknown}

	table, err := ComputeTally(matrices, perturbation, monitoring, 1e-5)
	require.NoError(t, err)

	acc := NewAccumulator(perturbation, monitoring, 1e-5)
	for _, m := range matrices {
		acc.Observe(m)
	}
	assert.Equal(t, acc.Consistent()*n, table.Total())
	assert.Equal(t, 200, acc.Observed())
	for i := 0; i < n; i++ {
		for _, s := range Columns {
			assert.GreaterOrEqual(t, table.Count(i, s), 0)
		}
	}
	// monitored node only ever predicts the observed sign
	assert.Equal(t, 0, table.Count(1, Negative))
	assert.Equal(t, 0, table.Count(1, Zero))
}

func TestComputeTally_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	matrices := randomEnsemble(rng, 100, 5)
	perturbation := Perturbation{Negative, Positive, Zero, Zero, Positive}
	monitoring := Monitoring{Unknown, Unknown, Known(Negative), Unknown, Unknown}

	want, err := ComputeTally(matrices, perturbation, monitoring, 1e-5)
	require.NoError(t, err)

	for round := 0; round < 5; round++ {
		shuffled := append([]mat.Matrix(nil), matrices...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, err := ComputeTally(shuffled, perturbation, monitoring, 1e-5)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestComputeTally_Errors(t *testing.T) {
	tests := []struct {
		name         string
		matrices     []mat.Matrix
		perturbation Perturbation
		monitoring   Monitoring
		eps          float64
		want         error
	}{
		{
			name:         "negative epsilon",
			matrices:     []mat.Matrix{identity2()},
			perturbation: Perturbation{Positive, Zero},
			monitoring:   UnknownMonitoring(2),
			eps:          -1,
			want:         core.ErrInvalidArgument,
		},
		{
			name:         "monitoring length",
			matrices:     []mat.Matrix{identity2()},
			perturbation: Perturbation{Positive, Zero},
			monitoring:   UnknownMonitoring(3),
			eps:          1e-5,
			want:         core.ErrInvalidDimension,
		},
		{
			name:         "matrix dimension",
			matrices:     []mat.Matrix{identity2(), mat.NewDense(3, 3, nil)},
			perturbation: Perturbation{Positive, Zero},
			monitoring:   UnknownMonitoring(2),
			eps:          1e-5,
			want:         core.ErrInvalidDimension,
		},
		{
			name:         "non square matrix",
			matrices:     []mat.Matrix{mat.NewDense(2, 3, nil)},
			perturbation: Perturbation{Positive, Zero},
			monitoring:   UnknownMonitoring(2),
			eps:          1e-5,
			want:         core.ErrInvalidDimension,
		},
		{
			name:         "no nodes",
			perturbation: Perturbation{},
			monitoring:   Monitoring{},
			eps:          1e-5,
			want:         core.ErrInvalidDimension,
		},
		{
			name:         "out of range sign",
			matrices:     []mat.Matrix{identity2()},
			perturbation: Perturbation{Sign(2), Zero},
			monitoring:   UnknownMonitoring(2),
			eps:          1e-5,
			want:         core.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ComputeTally(tt.matrices, tt.perturbation, tt.monitoring, tt.eps)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 0, table.Rows(), "no partial result on error")
		})
	}
}

func TestTable_AddAndProportions(t *testing.T) {
	a := Table{Counts: [][3]int{{1, 0, 3}, {0, 0, 0}}}
	b := Table{Counts: [][3]int{{1, 2, 1}, {0, 1, 0}}}
	require.NoError(t, a.Add(b))
	assert.Equal(t, [][3]int{{2, 2, 4}, {0, 1, 0}}, a.Counts)

	p := a.Proportions()
	assert.InDelta(t, 0.5, p[0][2], 1e-12)
	assert.InDelta(t, 1.0, p[1][1], 1e-12)

	err := a.Add(NewTable(3))
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
}

func TestParseObservation(t *testing.T) {
	obs, err := ParseObservation("?")
	require.NoError(t, err)
	assert.False(t, obs.IsKnown())
	assert.True(t, obs.Matches(Negative))

	obs, err = ParseObservation("+")
	require.NoError(t, err)
	s, known := obs.Sign()
	assert.True(t, known)
	assert.Equal(t, Positive, s)
	assert.False(t, obs.Matches(Zero))

	_, err = ParseObservation("maybe")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
