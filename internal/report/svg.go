package report

import (
	"html/template"
	"io"

	"gopress/domain/core"
	"gopress/domain/tally"
	"gopress/ports"
)

const (
	svgBarWidth  = 400
	svgBarHeight = 18
	svgRowGap    = 6
	svgLabelPad  = 120
)

var svgTemplate = template.Must(template.New("barplot").Parse(`<svg xmlns="http://www.w3.org/2000/svg" class="barplot" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
{{- range .Bars}}
<g class="bar" transform="translate(0,{{.Y}})">
<text x="{{$.LabelPad}}" y="13" text-anchor="end" dx="-6">{{.Label}}</text>
{{- range .Segments}}{{if .Width}}
<rect x="{{.X}}" width="{{.Width}}" height="{{$.BarHeight}}" fill="{{.Color}}"><title>{{.Name}}: {{.Count}}</title></rect>
{{- end}}{{end}}
</g>
{{- end}}
</svg>
`))

type svgSegment struct {
	X, Width float64
	Color    string
	Name     string
	Count    int
}

type svgBar struct {
	Label    string
	Y        int
	Segments []svgSegment
}

type svgPlot struct {
	Width, Height int
	LabelPad      int
	BarHeight     int
	Bars          []svgBar
}

// SVGBarplot renders the tally as an inline SVG fragment for the web dialog
type SVGBarplot struct{}

var _ ports.BarplotRenderer = SVGBarplot{}

// RenderBarplot writes an <svg> element to w. A zero table writes nothing.
func (SVGBarplot) RenderBarplot(w io.Writer, table tally.Table, labels []string, colors [3]string) error {
	if len(labels) != table.Rows() {
		return core.NewDimensionError("labels", len(labels), table.Rows())
	}
	if table.IsZero() {
		return nil
	}

	plot := svgPlot{
		Width:     svgLabelPad + svgBarWidth + 10,
		Height:    len(labels) * (svgBarHeight + svgRowGap),
		LabelPad:  svgLabelPad,
		BarHeight: svgBarHeight,
	}
	props := table.Proportions()
	for i, label := range labels {
		bar := svgBar{Label: label, Y: i * (svgBarHeight + svgRowGap)}
		x := float64(svgLabelPad)
		for j, s := range tally.Columns {
			width := props[i][j] * svgBarWidth
			bar.Segments = append(bar.Segments, svgSegment{
				X:     x,
				Width: width,
				Color: colors[j],
				Name:  s.String(),
				Count: table.Counts[i][j],
			})
			x += width
		}
		plot.Bars = append(plot.Bars, bar)
	}
	return svgTemplate.Execute(w, plot)
}
