package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"gopress/domain/core"
	"gopress/domain/run"
	"gopress/internal/errors"
	"gopress/ports"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// TallyRunRepositoryImpl implements TallyRunRepository for PostgreSQL
type TallyRunRepositoryImpl struct {
	db *sqlx.DB
}

// NewTallyRunRepository creates a new PostgreSQL tally run repository
func NewTallyRunRepository(db *sqlx.DB) ports.TallyRunRepository {
	return &TallyRunRepositoryImpl{db: db}
}

// tallyRunRow mirrors the tally_runs table
type tallyRunRow struct {
	ID           string             `db:"id"`
	CreatedAt    time.Time          `db:"created_at"`
	EnsembleID   string             `db:"ensemble_id"`
	EnsembleHash string             `db:"ensemble_hash"`
	Fingerprint  string             `db:"fingerprint"`
	Selection    string             `db:"selection"`
	Nodes        types.JSONText     `db:"nodes"`
	Perturbation types.JSONText     `db:"perturbation"`
	Monitoring   types.JSONText     `db:"monitoring"`
	Epsilon      float64            `db:"epsilon"`
	Counts       types.JSONText     `db:"counts"`
	Consistent   int                `db:"consistent"`
	Total        int                `db:"total"`
	Weights      types.NullJSONText `db:"weights"`
}

const selectColumns = `id, created_at, ensemble_id, ensemble_hash, fingerprint, selection,
	nodes, perturbation, monitoring, epsilon, counts, consistent, total, weights`

func toRow(r *run.TallyRun) (*tallyRunRow, error) {
	row := &tallyRunRow{
		ID:           r.ID.String(),
		CreatedAt:    r.CreatedAt,
		EnsembleID:   r.EnsembleID.String(),
		EnsembleHash: r.Fingerprint.Ensemble.String(),
		Fingerprint:  r.Fingerprint.Fingerprint.String(),
		Selection:    r.Fingerprint.Selection,
		Epsilon:      r.Epsilon,
		Consistent:   r.Consistent,
		Total:        r.Total,
	}
	var err error
	if row.Nodes, err = json.Marshal(r.Nodes); err != nil {
		return nil, err
	}
	if row.Perturbation, err = json.Marshal(r.Perturbation); err != nil {
		return nil, err
	}
	if row.Monitoring, err = json.Marshal(r.Monitoring); err != nil {
		return nil, err
	}
	if row.Counts, err = json.Marshal(r.Table.Counts); err != nil {
		return nil, err
	}
	if len(r.Weights) > 0 {
		data, err := json.Marshal(r.Weights)
		if err != nil {
			return nil, err
		}
		row.Weights = types.NullJSONText{JSONText: data, Valid: true}
	}
	return row, nil
}

func fromRow(row *tallyRunRow) (*run.TallyRun, error) {
	r := &run.TallyRun{
		ID:         core.RunID(row.ID),
		CreatedAt:  row.CreatedAt,
		EnsembleID: core.EnsembleID(row.EnsembleID),
		Fingerprint: run.RunFingerprint{
			Ensemble:    core.Hash(row.EnsembleHash),
			Selection:   row.Selection,
			Fingerprint: core.Hash(row.Fingerprint),
		},
		Epsilon:    row.Epsilon,
		Consistent: row.Consistent,
		Total:      row.Total,
	}
	if err := row.Nodes.Unmarshal(&r.Nodes); err != nil {
		return nil, err
	}
	if err := row.Perturbation.Unmarshal(&r.Perturbation); err != nil {
		return nil, err
	}
	if err := row.Monitoring.Unmarshal(&r.Monitoring); err != nil {
		return nil, err
	}
	if err := row.Counts.Unmarshal(&r.Table.Counts); err != nil {
		return nil, err
	}
	if row.Weights.Valid {
		if err := row.Weights.Unmarshal(&r.Weights); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Save inserts a run, replacing an existing run with the same ID
func (r *TallyRunRepositoryImpl) Save(ctx context.Context, tr *run.TallyRun) error {
	row, err := toRow(tr)
	if err != nil {
		return errors.Wrap(err, "failed to encode tally run")
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO tally_runs (
			id, created_at, ensemble_id, ensemble_hash, fingerprint, selection,
			nodes, perturbation, monitoring, epsilon, counts, consistent, total, weights
		) VALUES (
			:id, :created_at, :ensemble_id, :ensemble_hash, :fingerprint, :selection,
			:nodes, :perturbation, :monitoring, :epsilon, :counts, :consistent, :total, :weights
		)
		ON CONFLICT (id) DO UPDATE SET
			counts = EXCLUDED.counts,
			consistent = EXCLUDED.consistent,
			total = EXCLUDED.total,
			weights = EXCLUDED.weights`, row)
	if err != nil {
		return errors.DatabaseError("failed to save tally run", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *TallyRunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*run.TallyRun, error) {
	var row tallyRunRow
	err := r.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM tally_runs WHERE id = $1`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get tally run", err)
	}
	return fromRow(&row)
}

// Recent returns the newest runs first
func (r *TallyRunRepositoryImpl) Recent(ctx context.Context, limit int) ([]*run.TallyRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []tallyRunRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+selectColumns+` FROM tally_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list tally runs", err)
	}
	return fromRows(rows)
}

// FindByFingerprint returns the newest run with identical inputs
func (r *TallyRunRepositoryImpl) FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.TallyRun, error) {
	var row tallyRunRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+selectColumns+` FROM tally_runs WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1`,
		fingerprint.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to find tally run", err)
	}
	return fromRow(&row)
}

func fromRows(rows []tallyRunRow) ([]*run.TallyRun, error) {
	out := make([]*run.TallyRun, 0, len(rows))
	for i := range rows {
		tr, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}
