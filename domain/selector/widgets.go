package selector

import (
	"fmt"
	"math"

	"gopress/domain/core"
	"gopress/domain/network"
)

// Kind tags the closed set of widget variants
type Kind string

const (
	KindRadioGrid Kind = "radiogrid"
	KindEdgeGrid  Kind = "edgegrid"
	KindCheckbox  Kind = "checkbox"
	KindSlider    Kind = "slider"
)

// Widget is implemented by RadioGrid, EdgeGrid, Checkbox and Slider only.
type Widget interface {
	Kind() Kind
	Name() string
	Label() string
	Reset()
	widget()
}

// RadioGrid is a table of rows where each row selects exactly one choice
type RadioGrid struct {
	name     string
	label    string
	Rows     []string
	Choices  []string
	initial  int
	selected []int
}

// NewRadioGrid creates a grid with every row on the initial choice
func NewRadioGrid(name, label string, rows, choices []string, initial int) *RadioGrid {
	g := &RadioGrid{
		name:     name,
		label:    label,
		Rows:     rows,
		Choices:  choices,
		initial:  initial,
		selected: make([]int, len(rows)),
	}
	g.Reset()
	return g
}

func (g *RadioGrid) Kind() Kind    { return KindRadioGrid }
func (g *RadioGrid) Name() string  { return g.name }
func (g *RadioGrid) Label() string { return g.label }
func (g *RadioGrid) widget()       {}

// Reset puts every row back on the initial choice
func (g *RadioGrid) Reset() {
	for i := range g.selected {
		g.selected[i] = g.initial
	}
}

// Select sets row to choice
func (g *RadioGrid) Select(row, choice int) error {
	if row < 0 || row >= len(g.Rows) {
		return core.NewArgumentError(g.name, fmt.Sprintf("row %d out of range", row))
	}
	if choice < 0 || choice >= len(g.Choices) {
		return core.NewArgumentError(g.name, fmt.Sprintf("choice %d out of range", choice))
	}
	g.selected[row] = choice
	return nil
}

// SelectByName sets a row by its choice label
func (g *RadioGrid) SelectByName(row int, choice string) error {
	for c, name := range g.Choices {
		if name == choice {
			return g.Select(row, c)
		}
	}
	return core.NewArgumentError(g.name, fmt.Sprintf("unknown choice %q", choice))
}

// Selected returns the choice index of row
func (g *RadioGrid) Selected(row int) int {
	return g.selected[row]
}

// Choice returns the choice label of row
func (g *RadioGrid) Choice(row int) string {
	return g.Choices[g.selected[row]]
}

// EdgeGrid holds one checkbox per model edge
type EdgeGrid struct {
	name    string
	label   string
	Edges   []network.Edge
	checked []bool
}

// NewEdgeGrid creates a grid with no edges checked
func NewEdgeGrid(name, label string, edges []network.Edge) *EdgeGrid {
	return &EdgeGrid{name: name, label: label, Edges: edges, checked: make([]bool, len(edges))}
}

func (g *EdgeGrid) Kind() Kind    { return KindEdgeGrid }
func (g *EdgeGrid) Name() string  { return g.name }
func (g *EdgeGrid) Label() string { return g.label }
func (g *EdgeGrid) widget()       {}

// Reset unchecks every edge
func (g *EdgeGrid) Reset() {
	for i := range g.checked {
		g.checked[i] = false
	}
}

// Set checks or unchecks edge i
func (g *EdgeGrid) Set(i int, checked bool) error {
	if i < 0 || i >= len(g.checked) {
		return core.NewArgumentError(g.name, fmt.Sprintf("edge %d out of range", i))
	}
	g.checked[i] = checked
	return nil
}

// Checked reports whether edge i is checked
func (g *EdgeGrid) Checked(i int) bool {
	return g.checked[i]
}

// Selected returns the checked edge indices in ascending order
func (g *EdgeGrid) Selected() []int {
	var out []int
	for i, c := range g.checked {
		if c {
			out = append(out, i)
		}
	}
	return out
}

// Checkbox is a single boolean option
type Checkbox struct {
	name    string
	label   string
	initial bool
	Checked bool
}

// NewCheckbox creates a checkbox in its initial state
func NewCheckbox(name, label string, initial bool) *Checkbox {
	return &Checkbox{name: name, label: label, initial: initial, Checked: initial}
}

func (c *Checkbox) Kind() Kind    { return KindCheckbox }
func (c *Checkbox) Name() string  { return c.name }
func (c *Checkbox) Label() string { return c.label }
func (c *Checkbox) widget()       {}
func (c *Checkbox) Reset()        { c.Checked = c.initial }

// Slider is a bounded numeric value moving in fixed steps from Min
type Slider struct {
	name    string
	label   string
	Min     float64
	Max     float64
	Step    float64
	initial float64
	value   float64
}

// NewSlider creates a slider; initial is clamped and snapped like any Set
func NewSlider(name, label string, min, max, step, initial float64) (*Slider, error) {
	if !(min <= max) || step < 0 || math.IsNaN(step) {
		return nil, core.NewArgumentError(name, fmt.Sprintf("invalid range [%v, %v] step %v", min, max, step))
	}
	s := &Slider{name: name, label: label, Min: min, Max: max, Step: step}
	s.Set(initial)
	s.initial = s.value
	return s, nil
}

func (s *Slider) Kind() Kind    { return KindSlider }
func (s *Slider) Name() string  { return s.name }
func (s *Slider) Label() string { return s.label }
func (s *Slider) widget()       {}
func (s *Slider) Reset()        { s.value = s.initial }

// Set moves the slider to the nearest step within range and returns the
// value it settled on. NaN leaves the slider unchanged.
func (s *Slider) Set(v float64) float64 {
	if math.IsNaN(v) {
		return s.value
	}
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	s.value = math.Max(s.Min, math.Min(s.Max, v))
	return s.value
}

// Value returns the current slider position
func (s *Slider) Value() float64 {
	return s.value
}
