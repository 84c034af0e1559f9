package excel

import (
	"fmt"
	"io"
	"strings"

	"gopress/domain/core"
	"gopress/domain/tally"
	"gopress/ports"

	"github.com/xuri/excelize/v2"
)

// BarplotWorkbook renders a tally as a workbook: a sheet of counts plus a
// stacked horizontal bar chart over it.
type BarplotWorkbook struct {
	Title string
	Sheet string
}

var _ ports.BarplotRenderer = BarplotWorkbook{}

// NewBarplotWorkbook creates a renderer writing to a sheet named "Tally"
func NewBarplotWorkbook(title string) BarplotWorkbook {
	return BarplotWorkbook{Title: title, Sheet: "Tally"}
}

// RenderBarplot writes the workbook to w. A zero table writes nothing.
func (b BarplotWorkbook) RenderBarplot(w io.Writer, table tally.Table, labels []string, colors [3]string) error {
	if len(labels) != table.Rows() {
		return core.NewDimensionError("labels", len(labels), table.Rows())
	}
	if table.IsZero() {
		return nil
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := b.Sheet
	if sheet == "" {
		sheet = "Tally"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	header := []interface{}{"Node"}
	for _, s := range tally.Columns {
		header = append(header, s.String())
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, label := range labels {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{label, table.Counts[i][0], table.Counts[i][1], table.Counts[i][2]}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last := len(labels) + 1
	series := make([]excelize.ChartSeries, 0, 3)
	for j, col := range []string{"B", "C", "D"} {
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", sheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, col, col, last),
			Fill: excelize.Fill{
				Type:    "pattern",
				Pattern: 1,
				Color:   []string{strings.TrimPrefix(colors[j], "#")},
			},
		})
	}

	chart := &excelize.Chart{
		Type:   excelize.BarStacked,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: b.Title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{
			Width:  640,
			Height: uint(max(240, 28*len(labels)+120)),
		},
	}
	if err := f.AddChart(sheet, "F2", chart); err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}

	return f.Write(w)
}
