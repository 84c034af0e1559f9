package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"gopress/domain/core"
	"gopress/domain/tally"
	"gopress/ports"
)

// segmentRunes draw the -, 0 and + parts of a text bar
var segmentRunes = [3]string{"-", "0", "+"}

// TextBarplot draws one line per node with stacked segments scaled to Width
// characters. Colours are ignored.
type TextBarplot struct {
	Width int
}

var _ ports.BarplotRenderer = TextBarplot{}

// RenderBarplot writes the bars to w. A zero table writes nothing.
func (t TextBarplot) RenderBarplot(w io.Writer, table tally.Table, labels []string, _ [3]string) error {
	if len(labels) != table.Rows() {
		return core.NewDimensionError("labels", len(labels), table.Rows())
	}
	if table.IsZero() {
		return nil
	}
	width := t.Width
	if width <= 0 {
		width = 40
	}

	pad := 0
	for _, l := range labels {
		pad = max(pad, utf8.RuneCountInString(l))
	}

	props := table.Proportions()
	for i, label := range labels {
		var bar strings.Builder
		cum, prev := 0.0, 0
		for j := 0; j < 3; j++ {
			cum += props[i][j]
			end := min(int(cum*float64(width)+0.5), width)
			bar.WriteString(strings.Repeat(segmentRunes[j], end-prev))
			prev = end
		}
		row := table.Counts[i]
		if _, err := fmt.Fprintf(w, "%-*s |%-*s| %d/%d/%d\n", pad, label, width, bar.String(), row[0], row[1], row[2]); err != nil {
			return err
		}
	}
	return nil
}
