package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/tally"
	"gopress/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"Kelp=+", " Sea otter = - "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Kelp": "+", "Sea otter": "-"}, got)

	_, err = parseAssignments([]string{"Kelp"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = parseAssignments([]string{"=+"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = parseAssignments([]string{"A=+", "A=-"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestSelectionFlags(t *testing.T) {
	ens := testkit.FixtureEnsemble()
	f := selectionFlags{
		press:   []string{"A=+"},
		monitor: []string{"B=-", "C=?"},
		epsilon: 0.5,
		edges:   []string{"B:C"},
		weights: true,
	}
	sel, err := f.selection(ens)
	require.NoError(t, err)

	assert.Equal(t, testkit.PressA(), sel.Perturbation)
	assert.Equal(t, tally.Monitoring{tally.Unknown, tally.Known(tally.Negative), tally.Unknown}, sel.Monitoring)
	assert.Equal(t, 0.5, sel.Epsilon)
	assert.Equal(t, []int{1}, sel.Edges)
	assert.True(t, sel.ShowWeights)

	f.edges = []string{"C:A"}
	_, err = f.selection(ens)
	assert.ErrorIs(t, err, core.ErrUnknownEdge)

	f.edges = nil
	f.press = []string{"Z=+"}
	_, err = f.selection(ens)
	assert.ErrorIs(t, err, core.ErrUnknownNode)
}

func TestValidatorFlags(t *testing.T) {
	f := selectionFlags{press: []string{"Basal=+"}, monitor: []string{"Predator=+"}}
	v, err := f.validator([]string{"Basal", "Consumer", "Predator"})
	require.NoError(t, err)
	assert.Equal(t, tally.DefaultEpsilon, v.Epsilon)
	assert.Equal(t, tally.Perturbation{tally.Positive, tally.Zero, tally.Zero}, v.Perturbation)
	assert.Equal(t, tally.Known(tally.Positive), v.Monitoring[2])

	f.epsilon, f.epsilonSet = 0, true
	v, err = f.validator([]string{"Basal", "Consumer", "Predator"})
	require.NoError(t, err)
	assert.Zero(t, v.Epsilon)
}

func writeFixtureEnsemble(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ensemble.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, ensemble.Save(f, testkit.FixtureEnsemble()))
	return path
}

func TestTallyCommandEpsilon(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TALLY_EPSILON", "")
	path := writeFixtureEnsemble(t)

	cmd := newTallyCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path, "--press", "A=+"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "4 of 4 simulations consistent")

	cmd = newTallyCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path, "--press", "A=+", "--epsilon", "-0.5"})
	assert.ErrorIs(t, cmd.Execute(), core.ErrInvalidArgument)
}

func TestSimulateCommandRejectsNegativeEpsilon(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "chain.txt")
	require.NoError(t, os.WriteFile(model, []byte(testkit.ChainDigraph), 0o644))

	cmd := newSimulateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{model, "--samples", "5", "--press", "Basal=+", "--epsilon", "-0.5", "-o", filepath.Join(dir, "out.json")})
	assert.ErrorIs(t, cmd.Execute(), core.ErrInvalidArgument)
}

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.txt")
	require.NoError(t, os.WriteFile(path, []byte("Basal *-> Consumer\n"), 0o644))

	cmd := newParseCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "--limitation"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Nodes (2): Basal, Consumer")
	assert.Contains(t, out.String(), "Edges (4):")
}

func TestSimulateCommand(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "chain.txt")
	require.NoError(t, os.WriteFile(model, []byte(testkit.ChainDigraph), 0o644))
	output := filepath.Join(dir, "ensemble.json")

	cmd := newSimulateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{model, "--samples", "25", "--seed", "9", "--workers", "2", "-o", output})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "Accepted 25 of"))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	ens, err := ensemble.Load(f)
	require.NoError(t, err)
	assert.Equal(t, 25, ens.Size())
	assert.Len(t, ens.Edges, 7)
}
