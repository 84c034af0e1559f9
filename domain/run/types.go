package run

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"gopress/domain/core"
	"gopress/domain/network"
	"gopress/domain/tally"
)

// TallyRun is one evaluated node selection, as stored and displayed
type TallyRun struct {
	ID           core.RunID         `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	EnsembleID   core.EnsembleID    `json:"ensemble_id"`
	Fingerprint  RunFingerprint     `json:"fingerprint"`
	Nodes        []string           `json:"nodes"`
	Perturbation tally.Perturbation `json:"perturbation"`
	Monitoring   tally.Monitoring   `json:"monitoring"`
	Epsilon      float64            `json:"epsilon"`
	Table        tally.Table        `json:"table"`
	Consistent   int                `json:"consistent"`
	Total        int                `json:"total"`
	Weights      []WeightSummary    `json:"weights,omitempty"`
}

// Empty reports whether no simulation matched, in which case nothing is
// plotted
func (r *TallyRun) Empty() bool {
	return r.Consistent == 0
}

// AcceptanceRate is the fraction of simulations consistent with monitoring
func (r *TallyRun) AcceptanceRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Consistent) / float64(r.Total)
}

// WeightSummary describes the sampled weight of one edge across the
// simulations that were consistent with monitoring.
type WeightSummary struct {
	Edge             network.Edge `json:"edge"`
	N                int          `json:"n"`
	Mean             float64      `json:"mean"`
	StdDev           float64      `json:"std_dev"`
	Median           float64      `json:"median"`
	Q25              float64      `json:"q25"`
	Q75              float64      `json:"q75"`
	FractionPositive float64      `json:"fraction_positive"`
}

// RunFingerprint identifies the inputs of a tally so identical requests
// against the same ensemble can be recognised.
type RunFingerprint struct {
	Ensemble    core.Hash `json:"ensemble"`
	Selection   string    `json:"selection"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from the ensemble hash and the
// selection
func NewRunFingerprint(ensemble core.Hash, perturbation tally.Perturbation, monitoring tally.Monitoring, eps float64) RunFingerprint {
	var sel strings.Builder
	for _, s := range perturbation {
		sel.WriteString(s.String())
	}
	sel.WriteByte('|')
	for _, o := range monitoring {
		sel.WriteString(o.String())
	}
	fmt.Fprintf(&sel, "|%g", eps)

	data := fmt.Sprintf("ensemble:%s|selection:%s", ensemble, sel.String())
	hash := sha256.Sum256([]byte(data))
	return RunFingerprint{
		Ensemble:    ensemble,
		Selection:   sel.String(),
		Fingerprint: core.Hash(fmt.Sprintf("%x", hash)),
	}
}
