package ensemble

import (
	"encoding/json"
	"fmt"
	"io"

	"gopress/domain/core"
	"gopress/domain/network"

	"gonum.org/v1/gonum/mat"
)

// Ensemble is a set of accepted simulations of one model. Press[k] is the
// press response matrix of simulation k and Weights[k][e] the sampled
// weight of Edges[e] in that simulation.
type Ensemble struct {
	ID       core.EnsembleID
	Nodes    []string
	Edges    []network.Edge
	Press    []*mat.Dense
	Weights  [][]float64
	Accepted int
	Attempts int
}

// Size returns the number of simulations
func (e *Ensemble) Size() int {
	return len(e.Press)
}

// Matrices returns the press matrices as the read-only interface slice
// the tally consumes.
func (e *Ensemble) Matrices() []mat.Matrix {
	out := make([]mat.Matrix, len(e.Press))
	for i, m := range e.Press {
		out[i] = m
	}
	return out
}

// NodeIndex returns the position of a node label
func (e *Ensemble) NodeIndex(label string) (int, error) {
	for i, n := range e.Nodes {
		if n == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", core.ErrUnknownNode, label)
}

// EdgeIndex returns the position of the edge from -> to
func (e *Ensemble) EdgeIndex(from, to string) (int, error) {
	for i, edge := range e.Edges {
		if edge.From == from && edge.To == to {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s->%s", core.ErrUnknownEdge, from, to)
}

// Fingerprint hashes the press matrices so stored runs can be traced back
// to the ensemble they were computed from.
func (e *Ensemble) Fingerprint() core.Hash {
	rows := make([][]float64, len(e.Press))
	for i, m := range e.Press {
		rows[i] = m.RawMatrix().Data
	}
	return core.HashFloats(rows...)
}

// Validate checks that every press matrix is square over Nodes and that
// weights line up with edges.
func (e *Ensemble) Validate() error {
	n := len(e.Nodes)
	for k, m := range e.Press {
		r, c := m.Dims()
		if r != n || c != n {
			return core.NewDimensionError(fmt.Sprintf("press matrix %d", k), r*c, n*n)
		}
	}
	if e.Weights != nil {
		if len(e.Weights) != len(e.Press) {
			return core.NewDimensionError("weights", len(e.Weights), len(e.Press))
		}
		for k, w := range e.Weights {
			if len(w) != len(e.Edges) {
				return core.NewDimensionError(fmt.Sprintf("weights %d", k), len(w), len(e.Edges))
			}
		}
	}
	return nil
}

type ensembleJSON struct {
	ID       string         `json:"id"`
	Nodes    []string       `json:"nodes"`
	Edges    []network.Edge `json:"edges"`
	Press    [][]float64    `json:"press"`
	Weights  [][]float64    `json:"weights,omitempty"`
	Accepted int            `json:"accepted"`
	Attempts int            `json:"attempts"`
}

// MarshalJSON stores press matrices row-major
func (e *Ensemble) MarshalJSON() ([]byte, error) {
	doc := ensembleJSON{
		ID:       e.ID.String(),
		Nodes:    e.Nodes,
		Edges:    e.Edges,
		Press:    make([][]float64, len(e.Press)),
		Weights:  e.Weights,
		Accepted: e.Accepted,
		Attempts: e.Attempts,
	}
	for i, m := range e.Press {
		doc.Press[i] = mat.DenseCopyOf(m).RawMatrix().Data
	}
	return json.Marshal(doc)
}

// UnmarshalJSON is the inverse of MarshalJSON
func (e *Ensemble) UnmarshalJSON(data []byte) error {
	var doc ensembleJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	n := len(doc.Nodes)
	if n == 0 {
		return core.NewDimensionError("nodes", 0, 1)
	}
	press := make([]*mat.Dense, len(doc.Press))
	for i, flat := range doc.Press {
		if len(flat) != n*n {
			return core.NewDimensionError(fmt.Sprintf("press matrix %d", i), len(flat), n*n)
		}
		press[i] = mat.NewDense(n, n, flat)
	}
	*e = Ensemble{
		ID:       core.EnsembleID(doc.ID),
		Nodes:    doc.Nodes,
		Edges:    doc.Edges,
		Press:    press,
		Weights:  doc.Weights,
		Accepted: doc.Accepted,
		Attempts: doc.Attempts,
	}
	return e.Validate()
}

// Save writes the ensemble as indented JSON
func Save(w io.Writer, e *Ensemble) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to encode ensemble: %w", err)
	}
	return nil
}

// Load reads an ensemble written by Save
func Load(r io.Reader) (*Ensemble, error) {
	var e Ensemble
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to decode ensemble: %w", err)
	}
	return &e, nil
}
