package ui

import (
	"fmt"
	"html/template"
	"math"

	"gopress/domain/run"
	"gopress/domain/selector"
)

type optionView struct {
	Field   string
	Value   string
	Checked bool
}

type rowView struct {
	Label   string
	Options []optionView
}

// widgetView flattens one dialog widget for the template
type widgetView struct {
	Kind    selector.Kind
	Name    string
	Label   string
	Choices []string
	Rows    []rowView // radio grids and edge grids
	Checked bool      // checkbox
	Min     float64   // slider
	Max     float64   // slider
	Step    float64   // slider
	Value   float64   // slider
	Display string    // slider value as shown
}

type dialogView struct {
	Widgets     []widgetView
	Simulations int
	Run         *run.TallyRun
	Plot        template.HTML
	TextPlot    string
	Error       string
}

func newWidgetView(w selector.Widget) widgetView {
	v := widgetView{Kind: w.Kind(), Name: w.Name(), Label: w.Label()}
	switch w := w.(type) {
	case *selector.RadioGrid:
		v.Choices = w.Choices
		for i, label := range w.Rows {
			row := rowView{Label: label}
			for c, choice := range w.Choices {
				row.Options = append(row.Options, optionView{
					Field:   fmt.Sprintf("%s-%d", w.Name(), i),
					Value:   choice,
					Checked: w.Selected(i) == c,
				})
			}
			v.Rows = append(v.Rows, row)
		}
	case *selector.EdgeGrid:
		for i, e := range w.Edges {
			v.Rows = append(v.Rows, rowView{
				Label: e.String(),
				Options: []optionView{{
					Field:   fmt.Sprintf("%s-%d", w.Name(), i),
					Value:   "on",
					Checked: w.Checked(i),
				}},
			})
		}
	case *selector.Checkbox:
		v.Checked = w.Checked
	case *selector.Slider:
		v.Min, v.Max, v.Step, v.Value = w.Min, w.Max, w.Step, w.Value()
		v.Display = fmt.Sprintf("%.0e", math.Pow(10, w.Value()))
	}
	return v
}

func newDialogView(dialog *selector.NodeSelector) *dialogView {
	view := &dialogView{}
	for _, w := range dialog.Widgets() {
		view.Widgets = append(view.Widgets, newWidgetView(w))
	}
	return view
}
