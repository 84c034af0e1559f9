package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopress/adapters/memory"
	"gopress/adapters/simulate"
	"gopress/domain/core"
	"gopress/domain/ensemble"
	"gopress/domain/run"
	"gopress/domain/selector"
	"gopress/domain/tally"
	"gopress/internal/engine"
	"gopress/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(ctx context.Context, r *run.TallyRun) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) Get(ctx context.Context, id core.RunID) (*run.TallyRun, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*run.TallyRun)
	return r, args.Error(1)
}

func (m *mockRepository) Recent(ctx context.Context, limit int) ([]*run.TallyRun, error) {
	args := m.Called(ctx, limit)
	r, _ := args.Get(0).([]*run.TallyRun)
	return r, args.Error(1)
}

func (m *mockRepository) FindByFingerprint(ctx context.Context, fp core.Hash) (*run.TallyRun, error) {
	args := m.Called(ctx, fp)
	r, _ := args.Get(0).(*run.TallyRun)
	return r, args.Error(1)
}

func newService(repo *mockRepository) *TallyService {
	svc := NewTallyService(NewStaticEnsembleSource(testkit.FixtureEnsemble()), engine.New(engine.Config{Workers: 2, ChunkSize: 1}), repo)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestTallyService_Run(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.AnythingOfType("*run.TallyRun")).Return(nil)
	svc := newService(repo)

	tr, err := svc.Run(context.Background(), selector.Selection{
		Perturbation: testkit.PressA(),
		Monitoring:   tally.UnknownMonitoring(3),
		Epsilon:      1e-5,
	})
	require.NoError(t, err)

	assert.Equal(t, [][3]int{{1, 0, 3}, {1, 1, 2}, {0, 3, 1}}, tr.Table.Counts)
	assert.Equal(t, 4, tr.Consistent)
	assert.Equal(t, 4, tr.Total)
	assert.Equal(t, []string{"A", "B", "C"}, tr.Nodes)
	assert.Equal(t, core.EnsembleID("fixture"), tr.EnsembleID)
	assert.Equal(t, "+00|???|1e-05", tr.Fingerprint.Selection)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), tr.CreatedAt)
	assert.Empty(t, tr.Weights)
	_, err = core.ParseRunID(tr.ID.String())
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTallyService_RunWithWeights(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	svc := newService(repo)

	monitoring := tally.UnknownMonitoring(3)
	monitoring[1] = tally.Known(tally.Positive)
	tr, err := svc.Run(context.Background(), selector.Selection{
		Perturbation: testkit.PressA(),
		Monitoring:   monitoring,
		Epsilon:      1e-5,
		Edges:        []int{0, 1},
		ShowWeights:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, tr.Consistent)
	assert.Equal(t, [][3]int{{1, 0, 1}, {0, 0, 2}, {0, 1, 1}}, tr.Table.Counts)
	require.Len(t, tr.Weights, 2)
	assert.Equal(t, 2, tr.Weights[0].N)
	assert.InDelta(t, 0.7, tr.Weights[0].Mean, 1e-12)
	assert.InDelta(t, 1.0, tr.Weights[1].FractionPositive, 1e-12)
}

func TestTallyService_RunErrors(t *testing.T) {
	t.Run("dimension", func(t *testing.T) {
		repo := &mockRepository{}
		_, err := newService(repo).Run(context.Background(), selector.Selection{
			Perturbation: tally.Perturbation{tally.Positive},
			Monitoring:   tally.UnknownMonitoring(1),
		})
		assert.ErrorIs(t, err, core.ErrInvalidDimension)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("save fails", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		_, err := newService(repo).Run(context.Background(), selector.Selection{
			Perturbation: testkit.PressA(),
			Monitoring:   tally.UnknownMonitoring(3),
		})
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestTallyService_GetAndRecent(t *testing.T) {
	repo := memory.NewTallyRunRepository()
	svc := NewTallyService(NewStaticEnsembleSource(testkit.FixtureEnsemble()), engine.New(engine.Config{}), repo)
	ctx := context.Background()

	tr, err := svc.Run(ctx, selector.Selection{Perturbation: testkit.PressA(), Monitoring: tally.UnknownMonitoring(3)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.Table, got.Table)

	recent, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	_, err = svc.Get(ctx, core.NewRunID())
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestTallyService_NewSelector(t *testing.T) {
	svc := newService(&mockRepository{})
	dialog, err := svc.NewSelector(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, dialog.Nodes)

	sel := dialog.Selection()
	assert.Equal(t, tally.Perturbation{tally.Zero, tally.Zero, tally.Zero}, sel.Perturbation)
	assert.InDelta(t, 1e-5, sel.Epsilon, 1e-12)
}

func TestFileEnsembleSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ensemble.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ensemble.Save(f, testkit.FixtureEnsemble()))
	require.NoError(t, f.Close())

	src := NewFileEnsembleSource(path)
	ens, err := src.Ensemble(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, ens.Size())

	again, err := src.Ensemble(context.Background())
	require.NoError(t, err)
	assert.Same(t, ens, again)

	_, err = NewFileEnsembleSource(filepath.Join(t.TempDir(), "missing.json")).Ensemble(context.Background())
	assert.Error(t, err)
}

func TestSimulatedEnsembleSource(t *testing.T) {
	src := NewSimulatedEnsembleSource(testkit.ChainModel(t), simulate.Config{Samples: 20, Seed: 7, Workers: 2})
	ens, err := src.Ensemble(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, ens.Size())
	assert.Equal(t, []string{"Basal", "Consumer", "Predator"}, ens.Nodes)
}
