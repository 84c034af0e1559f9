package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gopress/domain/core"
	"gopress/domain/network"
	"gopress/domain/tally"
	"gopress/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadModelCSV(t *testing.T) {
	path := writeFile(t, "edges.csv", "From,To,Type,Group\n# predator-prey\nprey,predator,P,trophic\npredator,prey,N,trophic\n,,,\nprey,prey,N,\n")

	model, err := NewDataReader(path).ReadModel()
	require.NoError(t, err)

	require.Len(t, model.Edges, 3)
	assert.Equal(t, []string{"predator", "prey"}, model.Nodes())
	assert.Equal(t, network.Edge{From: "prey", To: "predator", Type: network.EdgePositive, Group: "trophic"}, model.Edges[0])
	assert.Equal(t, network.EdgeNegative, model.Edges[1].Type)
	assert.True(t, model.Edges[2].IsSelfLoop())
}

func TestReadModelXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"from", "to", "type"},
		{"A", "B", "P"},
		{"B", "C", "U"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "edges.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	model, err := NewDataReader(path).ReadModel()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, model.Nodes())
	assert.Equal(t, network.EdgeUnknown, model.Edges[1].Type)
}

func TestReadModelErrors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		path := writeFile(t, "edges.csv", "From,To\nA,B\n")
		_, err := NewDataReader(path).ReadModel()
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("bad edge type", func(t *testing.T) {
		path := writeFile(t, "edges.csv", "From,To,Type\nA,B,Q\n")
		_, err := NewDataReader(path).ReadModel()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewDataReader(filepath.Join(t.TempDir(), "none.csv")).ReadModel()
		assert.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeFile(t, "edges.csv", "From,To,Type\n")
		_, err := NewDataReader(path).ReadData()
		assert.Error(t, err)
	})
}

func TestBarplotWorkbook(t *testing.T) {
	table := tally.Table{Counts: [][3]int{{1, 0, 3}, {0, 4, 0}}}
	var buf bytes.Buffer

	err := NewBarplotWorkbook("Outcomes").RenderBarplot(&buf, table, []string{"prey", "predator"}, ports.DefaultBarColors)
	require.NoError(t, err)
	require.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Tally")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Node", "-", "0", "+"}, rows[0])
	assert.Equal(t, []string{"prey", "1", "0", "3"}, rows[1])
	assert.Equal(t, []string{"predator", "0", "4", "0"}, rows[2])
}

func TestBarplotWorkbookZeroTable(t *testing.T) {
	var buf bytes.Buffer
	err := NewBarplotWorkbook("").RenderBarplot(&buf, tally.NewTable(2), []string{"a", "b"}, ports.DefaultBarColors)
	require.NoError(t, err)
	assert.Zero(t, buf.Len())
}

func TestBarplotWorkbookLabelMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := NewBarplotWorkbook("").RenderBarplot(&buf, tally.NewTable(2), []string{"a"}, ports.DefaultBarColors)
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
}
