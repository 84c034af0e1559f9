package ports

import (
	"io"

	"gopress/domain/tally"
)

// DefaultBarColors are the fills for the -, 0 and + segments
var DefaultBarColors = [3]string{"#92C5DE", "#808080", "#F4A582"}

// BarplotRenderer draws one horizontal stacked bar per node. labels are in
// table row order and colors follow tally.Columns.
type BarplotRenderer interface {
	RenderBarplot(w io.Writer, table tally.Table, labels []string, colors [3]string) error
}
