package network

import (
	"fmt"
	"sort"
	"strings"

	"gopress/domain/core"
)

// EdgeType is the sign class of a directed interaction
type EdgeType string

const (
	EdgePositive EdgeType = "P"
	EdgeNegative EdgeType = "N"
	EdgeUnknown  EdgeType = "U" // sign not known, sampled symmetric around zero
	EdgeZero     EdgeType = "Z" // structurally absent
)

// ParseEdgeType accepts the single-letter codes and their symbolic aliases.
func ParseEdgeType(s string) (EdgeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P", "+", "POSITIVE":
		return EdgePositive, nil
	case "N", "-", "NEGATIVE":
		return EdgeNegative, nil
	case "U", "?", "UNKNOWN":
		return EdgeUnknown, nil
	case "Z", "0", "ZERO":
		return EdgeZero, nil
	}
	return "", core.NewArgumentError("edge type", fmt.Sprintf("%q is not one of P, N, U, Z", s))
}

// Edge is a directed interaction: From has an effect on To
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Type  EdgeType `json:"type"`
	Group string   `json:"group,omitempty"`
}

// Key identifies an edge independent of its type
func (e Edge) Key() string {
	return e.From + "->" + e.To
}

// String renders the edge in arrow notation
func (e Edge) String() string {
	switch e.Type {
	case EdgePositive:
		return e.From + " -> " + e.To
	case EdgeNegative:
		return e.From + " -* " + e.To
	case EdgeUnknown:
		return e.From + " -o " + e.To
	default:
		return e.From + " -- " + e.To
	}
}

// IsSelfLoop reports whether the edge is a self-limitation term
func (e Edge) IsSelfLoop() bool {
	return e.From == e.To
}

// Model is a signed directed graph over labelled nodes
type Model struct {
	Edges []Edge `json:"edges"`
}

// NewModel builds a model and validates it
func NewModel(edges []Edge) (*Model, error) {
	m := &Model{Edges: append([]Edge(nil), edges...)}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks labels, types and duplicate edges
func (m *Model) Validate() error {
	if len(m.Edges) == 0 {
		return core.ErrEmptyModel
	}
	seen := make(map[string]bool, len(m.Edges))
	for i, e := range m.Edges {
		if strings.TrimSpace(e.From) == "" || strings.TrimSpace(e.To) == "" {
			return core.NewArgumentError(fmt.Sprintf("edge %d", i), "has an empty endpoint")
		}
		switch e.Type {
		case EdgePositive, EdgeNegative, EdgeUnknown, EdgeZero:
		default:
			return core.NewArgumentError(fmt.Sprintf("edge %s", e.Key()), fmt.Sprintf("has invalid type %q", e.Type))
		}
		if seen[e.Key()] {
			return core.NewArgumentError(fmt.Sprintf("edge %s", e.Key()), "is duplicated")
		}
		seen[e.Key()] = true
	}
	return nil
}

// Nodes returns the sorted set of distinct edge endpoints. A node's
// ordinal index is its position in this slice.
func (m *Model) Nodes() []string {
	set := make(map[string]struct{})
	for _, e := range m.Edges {
		set[e.From] = struct{}{}
		set[e.To] = struct{}{}
	}
	nodes := make([]string, 0, len(set))
	for n := range set {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// Index maps node labels to their ordinal positions
func (m *Model) Index() map[string]int {
	nodes := m.Nodes()
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n] = i
	}
	return idx
}

// EnforceLimitation returns a copy of the model where every node without a
// self-loop gains a negative one.
func (m *Model) EnforceLimitation() *Model {
	limited := make(map[string]bool)
	for _, e := range m.Edges {
		if e.IsSelfLoop() {
			limited[e.From] = true
		}
	}
	out := &Model{Edges: append([]Edge(nil), m.Edges...)}
	for _, n := range m.Nodes() {
		if !limited[n] {
			out.Edges = append(out.Edges, Edge{From: n, To: n, Type: EdgeNegative})
		}
	}
	return out
}

// Find returns the index of the edge from -> to, or -1
func (m *Model) Find(from, to string) int {
	for i, e := range m.Edges {
		if e.From == from && e.To == to {
			return i
		}
	}
	return -1
}
