package testkit

import (
	"testing"

	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/network"
	"gopress/domain/tally"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// ChainDigraph is a three species chain with self-limitation on every node
const ChainDigraph = `# basal -> consumer -> predator
Basal *-> Consumer
Consumer *-> Predator
Basal -* Basal
Consumer -* Consumer
Predator -* Predator
`

// ChainModel parses ChainDigraph
func ChainModel(t testing.TB) *network.Model {
	t.Helper()
	m, err := network.ParseDigraphString(ChainDigraph)
	require.NoError(t, err)
	return m
}

// Fixture press matrices over nodes A, B, C. Pressing A positively gives
// raw responses (1,0,0), (1,1,0), (1,-1,0) and (-1,1,1).
var fixturePress = [][]float64{
	{1, 0, 0, 0, 1, 0, 0, 0, 1},
	{1, 0, 0, 1, 1, 0, 0, 0, 1},
	{1, 0, 0, -1, 1, 0, 0, 0, 1},
	{-1, 0, 0, 1, 1, 0, 1, 0, 1},
}

// FixtureEnsemble returns a small hand-built ensemble with known tallies.
// With A pressed up and nothing monitored the table is
//
//	A: 1 0 3
//	B: 1 1 2
//	C: 0 3 1
//
// and monitoring B as + keeps simulations 1 and 3.
func FixtureEnsemble() *ensemble.Ensemble {
	ens := &ensemble.Ensemble{
		ID:    core.EnsembleID("fixture"),
		Nodes: []string{"A", "B", "C"},
		Edges: []network.Edge{
			{From: "A", To: "B", Type: network.EdgePositive},
			{From: "B", To: "C", Type: network.EdgeUnknown},
		},
		Weights:  [][]float64{{0.1, 0.2}, {0.5, 0.4}, {0.3, -0.6}, {0.9, 0.8}},
		Accepted: len(fixturePress),
		Attempts: len(fixturePress),
	}
	for _, data := range fixturePress {
		ens.Press = append(ens.Press, mat.NewDense(3, 3, append([]float64(nil), data...)))
	}
	return ens
}

// PressA perturbs node A of the fixture upwards
func PressA() tally.Perturbation {
	return tally.Perturbation{tally.Positive, tally.Zero, tally.Zero}
}
