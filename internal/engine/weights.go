package engine

import (
	"fmt"

	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/run"

	"github.com/montanaflynn/stats"
)

// SummarizeWeights summarises the selected edges over the simulations in
// matches. Edges with no matching simulations get a zero summary.
func SummarizeWeights(ens *ensemble.Ensemble, matches []int, edges []int) ([]run.WeightSummary, error) {
	out := make([]run.WeightSummary, 0, len(edges))
	for _, e := range edges {
		if e < 0 || e >= len(ens.Edges) {
			return nil, fmt.Errorf("%w: index %d", core.ErrUnknownEdge, e)
		}
		summary := run.WeightSummary{Edge: ens.Edges[e]}
		if len(matches) == 0 || ens.Weights == nil {
			out = append(out, summary)
			continue
		}

		data := make(stats.Float64Data, len(matches))
		positive := 0
		for i, k := range matches {
			data[i] = ens.Weights[k][e]
			if data[i] > 0 {
				positive++
			}
		}

		var err error
		summary.N = len(data)
		if summary.Mean, err = data.Mean(); err != nil {
			return nil, err
		}
		if summary.StdDev, err = data.StandardDeviation(); err != nil {
			return nil, err
		}
		if summary.Median, err = data.Median(); err != nil {
			return nil, err
		}
		if summary.Q25, err = stats.Percentile(data, 25); err != nil {
			return nil, err
		}
		if summary.Q75, err = stats.Percentile(data, 75); err != nil {
			return nil, err
		}
		summary.FractionPositive = float64(positive) / float64(len(data))
		out = append(out, summary)
	}
	return out, nil
}
