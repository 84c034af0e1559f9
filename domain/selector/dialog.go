package selector

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"gopress/domain/core"
	"gopress/domain/network"
	"gopress/domain/tally"
)

// Choice labels of the perturbation and monitoring grids
var (
	PerturbChoices = []string{"-", "0", "+"}
	MonitorChoices = []string{"-", "0", "+", "?"}
)

// Selection is the state the dialog hands to the tally
type Selection struct {
	Perturbation tally.Perturbation
	Monitoring   tally.Monitoring
	Epsilon      float64
	Edges        []int
	ShowWeights  bool
}

// NodeSelector is the composite node selection dialog. Widgets hold the
// state; callers read it with Selection after applying user input.
type NodeSelector struct {
	Nodes       []string
	Perturb     *RadioGrid
	Monitor     *RadioGrid
	EdgeChoice  *EdgeGrid
	Epsilon     *Slider // log10 of the tolerance
	ShowWeights *Checkbox
}

// NewNodeSelector builds the dialog for a model's nodes and edges with
// no perturbation, every node unmonitored and a tolerance of 1e-5.
func NewNodeSelector(nodes []string, edges []network.Edge) *NodeSelector {
	eps, _ := NewSlider("epsilon", "log10 tolerance", -12, -1, 1, math.Log10(tally.DefaultEpsilon))
	return &NodeSelector{
		Nodes:       nodes,
		Perturb:     NewRadioGrid("perturb", "Perturb", nodes, PerturbChoices, 1),
		Monitor:     NewRadioGrid("monitor", "Monitor", nodes, MonitorChoices, 3),
		EdgeChoice:  NewEdgeGrid("edge", "Edges", edges),
		Epsilon:     eps,
		ShowWeights: NewCheckbox("weights", "Show edge weights", false),
	}
}

// Widgets lists the dialog widgets in display order
func (s *NodeSelector) Widgets() []Widget {
	return []Widget{s.Perturb, s.Monitor, s.EdgeChoice, s.Epsilon, s.ShowWeights}
}

// Reset restores every widget to its initial state
func (s *NodeSelector) Reset() {
	for _, w := range s.Widgets() {
		w.Reset()
	}
}

func (s *NodeSelector) nodeIndex(label string) (int, error) {
	for i, n := range s.Nodes {
		if n == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", core.ErrUnknownNode, label)
}

// SetPerturbation presses the labelled node in direction sign
func (s *NodeSelector) SetPerturbation(label string, sign tally.Sign) error {
	i, err := s.nodeIndex(label)
	if err != nil {
		return err
	}
	if !sign.Valid() {
		return core.NewArgumentError("perturbation", fmt.Sprintf("invalid sign %v", sign))
	}
	return s.Perturb.Select(i, sign.Column())
}

// SetMonitoring records the observed outcome for the labelled node
func (s *NodeSelector) SetMonitoring(label string, obs tally.Observation) error {
	i, err := s.nodeIndex(label)
	if err != nil {
		return err
	}
	sign, known := obs.Sign()
	if !known {
		return s.Monitor.Select(i, 3)
	}
	if !sign.Valid() {
		return core.NewArgumentError("monitoring", fmt.Sprintf("invalid sign %v", sign))
	}
	return s.Monitor.Select(i, sign.Column())
}

// SetEpsilon sets the tolerance, snapped to the nearest power of ten in range
func (s *NodeSelector) SetEpsilon(eps float64) error {
	if eps <= 0 || math.IsNaN(eps) {
		return core.NewArgumentError("epsilon", fmt.Sprintf("must be positive, got %v", eps))
	}
	s.Epsilon.Set(math.Log10(eps))
	return nil
}

// tolerance converts the log10 slider position back to epsilon. Whole
// powers go through Pow10 so the default reads back as exactly 1e-5.
func (s *NodeSelector) tolerance() float64 {
	v := s.Epsilon.Value()
	if v == math.Trunc(v) {
		return math.Pow10(int(v))
	}
	return math.Pow(10, v)
}

// Selection reads the current widget state
func (s *NodeSelector) Selection() Selection {
	n := len(s.Nodes)
	sel := Selection{
		Perturbation: make(tally.Perturbation, n),
		Monitoring:   make(tally.Monitoring, n),
		Epsilon:      s.tolerance(),
		Edges:        s.EdgeChoice.Selected(),
		ShowWeights:  s.ShowWeights.Checked,
	}
	for i := 0; i < n; i++ {
		sel.Perturbation[i] = tally.Columns[s.Perturb.Selected(i)]
		if c := s.Monitor.Selected(i); c < 3 {
			sel.Monitoring[i] = tally.Known(tally.Columns[c])
		} else {
			sel.Monitoring[i] = tally.Unknown
		}
	}
	return sel
}

// DecodeForm applies submitted dialog fields. Fields are named
// perturb-<row>, monitor-<row>, edge-<index>, epsilon and weights; rows
// and edges missing from the form take their initial state.
func (s *NodeSelector) DecodeForm(form url.Values) error {
	s.Reset()
	for i := range s.Nodes {
		if v := form.Get(fmt.Sprintf("%s-%d", s.Perturb.Name(), i)); v != "" {
			if err := s.Perturb.SelectByName(i, v); err != nil {
				return err
			}
		}
		if v := form.Get(fmt.Sprintf("%s-%d", s.Monitor.Name(), i)); v != "" {
			if err := s.Monitor.SelectByName(i, v); err != nil {
				return err
			}
		}
	}
	for i := range s.EdgeChoice.Edges {
		if form.Get(fmt.Sprintf("%s-%d", s.EdgeChoice.Name(), i)) != "" {
			if err := s.EdgeChoice.Set(i, true); err != nil {
				return err
			}
		}
	}
	if v := form.Get(s.Epsilon.Name()); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return core.NewArgumentError("epsilon", fmt.Sprintf("%q is not a number", v))
		}
		s.Epsilon.Set(f)
	}
	s.ShowWeights.Checked = form.Get(s.ShowWeights.Name()) != ""
	return nil
}

// ApplyLabels is the non-form entry point used by the JSON API and CLI:
// maps from node label to sign strings ("-", "0", "+", "?").
func (s *NodeSelector) ApplyLabels(perturb, monitor map[string]string) error {
	for label, v := range perturb {
		sign, err := tally.ParseSign(v)
		if err != nil {
			return fmt.Errorf("perturbation of %s: %w", label, err)
		}
		if err := s.SetPerturbation(label, sign); err != nil {
			return err
		}
	}
	for label, v := range monitor {
		obs, err := tally.ParseObservation(v)
		if err != nil {
			return fmt.Errorf("monitoring of %s: %w", label, err)
		}
		if err := s.SetMonitoring(label, obs); err != nil {
			return err
		}
	}
	return nil
}
