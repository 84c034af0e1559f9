package main

import (
	"fmt"
	"strings"

	"gopress/adapters/simulate"
	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/selector"
	"gopress/domain/tally"

	"github.com/spf13/cobra"
)

// selectionFlags are the node selector dialog as command line flags
type selectionFlags struct {
	press   []string
	monitor []string
	epsilon float64
	edges   []string
	weights bool

	// epsilonSet is true when --epsilon was given on the command line
	epsilonSet bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.press, "press", nil, "Perturbed nodes as Node=+|-|0 (repeatable)")
	cmd.Flags().StringSliceVar(&f.monitor, "monitor", nil, "Observed outcomes as Node=+|-|0|? (repeatable)")
	cmd.Flags().Float64Var(&f.epsilon, "epsilon", 0, "Tolerance below which a response counts as zero (default TALLY_EPSILON)")
	cmd.Flags().StringSliceVar(&f.edges, "edge", nil, "Edges to summarise as From:To (repeatable)")
	cmd.Flags().BoolVar(&f.weights, "weights", false, "Summarise weights of the selected edges")
}

// parsed records which flags cmd was given. Call it at the start of RunE.
func (f *selectionFlags) parsed(cmd *cobra.Command) {
	f.epsilonSet = cmd.Flags().Changed("epsilon")
}

// tolerance returns --epsilon when given, otherwise fallback. An explicit
// value is passed through unchecked so validation reports it.
func (f *selectionFlags) tolerance(fallback float64) float64 {
	if f.epsilonSet {
		return f.epsilon
	}
	return fallback
}

func (f *selectionFlags) active() bool {
	return len(f.press) > 0 || len(f.monitor) > 0
}

// parseAssignments splits Node=value pairs. Node labels may contain '='
// only before the last one.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndexByte(p, '=')
		if i <= 0 {
			return nil, core.NewArgumentError("assignment", fmt.Sprintf("%q is not Node=value", p))
		}
		label := strings.TrimSpace(p[:i])
		if _, dup := out[label]; dup {
			return nil, core.NewArgumentError("assignment", fmt.Sprintf("%s given twice", label))
		}
		out[label] = strings.TrimSpace(p[i+1:])
	}
	return out, nil
}

// dialog applies the flags to a node selector over nodes
func (f *selectionFlags) dialog(nodes []string, ens *ensemble.Ensemble) (*selector.NodeSelector, error) {
	press, err := parseAssignments(f.press)
	if err != nil {
		return nil, err
	}
	monitor, err := parseAssignments(f.monitor)
	if err != nil {
		return nil, err
	}

	var dialog *selector.NodeSelector
	if ens != nil {
		dialog = selector.NewNodeSelector(ens.Nodes, ens.Edges)
	} else {
		dialog = selector.NewNodeSelector(nodes, nil)
	}
	if err := dialog.ApplyLabels(press, monitor); err != nil {
		return nil, err
	}
	return dialog, nil
}

// selection resolves the flags against an ensemble. The tolerance is
// taken as given rather than snapped to the dialog slider.
func (f *selectionFlags) selection(ens *ensemble.Ensemble) (selector.Selection, error) {
	dialog, err := f.dialog(nil, ens)
	if err != nil {
		return selector.Selection{}, err
	}
	for _, spec := range f.edges {
		from, to, ok := strings.Cut(spec, ":")
		if !ok {
			return selector.Selection{}, core.NewArgumentError("edge", fmt.Sprintf("%q is not From:To", spec))
		}
		i, err := ens.EdgeIndex(strings.TrimSpace(from), strings.TrimSpace(to))
		if err != nil {
			return selector.Selection{}, err
		}
		if err := dialog.EdgeChoice.Set(i, true); err != nil {
			return selector.Selection{}, err
		}
	}
	dialog.ShowWeights.Checked = f.weights

	sel := dialog.Selection()
	sel.Epsilon = f.epsilon
	return sel, nil
}

// validator turns the flags into a simulation acceptance criterion
func (f *selectionFlags) validator(nodes []string) (simulate.Validator, error) {
	dialog, err := f.dialog(nodes, nil)
	if err != nil {
		return simulate.Validator{}, err
	}
	sel := dialog.Selection()
	return simulate.Validator{
		Perturbation: sel.Perturbation,
		Monitoring:   sel.Monitoring,
		Epsilon:      f.tolerance(tally.DefaultEpsilon),
	}, nil
}
