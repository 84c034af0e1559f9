package memory

import (
	"context"
	"sort"
	"sync"

	"gopress/domain/core"
	"gopress/domain/run"
	"gopress/ports"
)

// TallyRunRepository keeps runs in process memory. Used when no database
// is configured and in tests.
type TallyRunRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID]*run.TallyRun
}

var _ ports.TallyRunRepository = (*TallyRunRepository)(nil)

// NewTallyRunRepository creates an empty repository
func NewTallyRunRepository() *TallyRunRepository {
	return &TallyRunRepository{runs: make(map[core.RunID]*run.TallyRun)}
}

func (r *TallyRunRepository) Save(ctx context.Context, tr *run.TallyRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tr
	r.runs[tr.ID] = &cp
	return nil
}

func (r *TallyRunRepository) Get(ctx context.Context, id core.RunID) (*run.TallyRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tr, ok := r.runs[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	cp := *tr
	return &cp, nil
}

func (r *TallyRunRepository) Recent(ctx context.Context, limit int) ([]*run.TallyRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*run.TallyRun, 0, len(r.runs))
	for _, tr := range r.runs {
		cp := *tr
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *TallyRunRepository) FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.TallyRun, error) {
	runs, _ := r.Recent(ctx, 0)
	for _, tr := range runs {
		if tr.Fingerprint.Fingerprint == fingerprint {
			return tr, nil
		}
	}
	return nil, core.ErrRunNotFound
}

// sortNewestFirst orders by creation time, then by ID which is time ordered
func sortNewestFirst(runs []*run.TallyRun) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})
}
