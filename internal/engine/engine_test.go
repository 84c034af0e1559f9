package engine

import (
	"context"
	"math/rand"
	"testing"

	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/network"
	"gopress/domain/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomMatrices(seed int64, count, n int) []mat.Matrix {
	rng := rand.New(rand.NewSource(seed))
	out := make([]mat.Matrix, count)
	for k := range out {
		data := make([]float64, n*n)
		for i := range data {
			data[i] = rng.NormFloat64()
		}
		out[k] = mat.NewDense(n, n, data)
	}
	return out
}

func TestEngine_MatchesSequentialTally(t *testing.T) {
	matrices := randomMatrices(5, 1000, 4)
	req := Request{
		Perturbation: tally.Perturbation{tally.Positive, tally.Zero, tally.Zero, tally.Negative},
		Monitoring:   tally.Monitoring{tally.Unknown, tally.Known(tally.Positive), tally.Unknown, tally.Unknown},
		Epsilon:      1e-5,
	}
	want, err := tally.ComputeTally(matrices, req.Perturbation, req.Monitoring, req.Epsilon)
	require.NoError(t, err)

	for _, cfg := range []Config{{Workers: 1, ChunkSize: 1000}, {Workers: 4, ChunkSize: 7}, {Workers: 16, ChunkSize: 1}, {}} {
		res, err := New(cfg).Evaluate(context.Background(), matrices, req)
		require.NoError(t, err)
		assert.Equal(t, want, res.Table, "config %+v", cfg)
		assert.Equal(t, 1000, res.Total)
		assert.Equal(t, res.Consistent*4, res.Table.Total())
		assert.Len(t, res.Matches, res.Consistent)
		assert.IsNonDecreasing(t, res.Matches)
	}
}

func TestEngine_EmptyEnsemble(t *testing.T) {
	res, err := New(Config{Workers: 2}).Evaluate(context.Background(), nil, Request{
		Perturbation: tally.Perturbation{tally.Positive, tally.Zero},
		Monitoring:   tally.UnknownMonitoring(2),
		Epsilon:      1e-5,
	})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 2, res.Table.Rows())
	assert.True(t, res.Table.IsZero())
}

func TestEngine_PropagatesValidation(t *testing.T) {
	_, err := New(Config{}).Evaluate(context.Background(), randomMatrices(1, 3, 3), Request{
		Perturbation: tally.Perturbation{tally.Positive, tally.Zero},
		Monitoring:   tally.UnknownMonitoring(2),
		Epsilon:      1e-5,
	})
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{Workers: 1, ChunkSize: 1}).Evaluate(ctx, randomMatrices(1, 10, 2), Request{
		Perturbation: tally.Perturbation{tally.Positive, tally.Zero},
		Monitoring:   tally.UnknownMonitoring(2),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarizeWeights(t *testing.T) {
	ens := &ensemble.Ensemble{
		Nodes: []string{"A", "B"},
		Edges: []network.Edge{
			{From: "A", To: "B", Type: network.EdgeUnknown},
			{From: "B", To: "A", Type: network.EdgeNegative},
		},
		Weights: [][]float64{{0.5, -0.1}, {-0.5, -0.2}, {0.25, -0.3}, {1, -0.4}},
	}

	summaries, err := SummarizeWeights(ens, []int{0, 2, 3}, []int{0, 1})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, 3, first.N)
	assert.InDelta(t, (0.5+0.25+1)/3, first.Mean, 1e-12)
	assert.InDelta(t, 0.5, first.Median, 1e-12)
	assert.InDelta(t, 1.0, first.FractionPositive, 1e-12)
	assert.Equal(t, "A", first.Edge.From)

	assert.InDelta(t, 0.0, summaries[1].FractionPositive, 1e-12)

	none, err := SummarizeWeights(ens, nil, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 0, none[0].N)
}

func TestSummarizeWeights_UnknownEdge(t *testing.T) {
	ens := &ensemble.Ensemble{Edges: []network.Edge{{From: "A", To: "B"}}}
	_, err := SummarizeWeights(ens, nil, []int{3})
	assert.ErrorIs(t, err, core.ErrUnknownEdge)
}
