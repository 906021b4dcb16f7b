package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const (
	progressionColumns = `owner_id, exercise_id, current_load_recommendation, microcycles_completed,
	deload_counter, best_estimated_1rm, last_volume_load, last_effective_sets, last_updated`

	sqlUpsertProgression = `INSERT INTO progression (` + progressionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner_id, exercise_id) DO UPDATE SET
		current_load_recommendation = excluded.current_load_recommendation,
		microcycles_completed = excluded.microcycles_completed,
		deload_counter = excluded.deload_counter,
		best_estimated_1rm = excluded.best_estimated_1rm,
		last_volume_load = excluded.last_volume_load,
		last_effective_sets = excluded.last_effective_sets,
		last_updated = excluded.last_updated`

	sqlGetProgression  = `SELECT ` + progressionColumns + ` FROM progression WHERE owner_id = ? AND exercise_id = ?`
	sqlListProgression = `SELECT ` + progressionColumns + ` FROM progression WHERE owner_id = ? ORDER BY exercise_id`
)

// progressionTable implements types.ProgressionTableAccess.
type progressionTable struct {
	tx *sql.Tx
}

func (t *progressionTable) Put(ctx context.Context, r *types.ProgressionRecord) error {
	_, err := t.tx.ExecContext(ctx, sqlUpsertProgression,
		r.OwnerID, r.ExerciseID, r.CurrentLoadRecommendation, r.MicrocyclesCompleted, r.DeloadCounter,
		r.BestEstimated1RM, r.LastVolumeLoad, r.LastEffectiveSets, formatTime(r.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("saving progression %s/%s: %w", r.OwnerID, r.ExerciseID, err)
	}
	return nil
}

func (t *progressionTable) Get(ctx context.Context, ownerID, exerciseID string) (*types.ProgressionRecord, error) {
	r, err := scanProgression(t.tx.QueryRowContext(ctx, sqlGetProgression, ownerID, exerciseID))
	if err != nil {
		return nil, notFound(err, types.ErrProgressionNotFound, exerciseID)
	}
	return r, nil
}

func (t *progressionTable) ListByOwner(ctx context.Context, ownerID string) ([]types.ProgressionRecord, error) {
	rows, err := t.tx.QueryContext(ctx, sqlListProgression, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing progression: %w", err)
	}
	defer rows.Close()

	var out []types.ProgressionRecord
	for rows.Next() {
		r, err := scanProgression(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanProgression(row scanner) (*types.ProgressionRecord, error) {
	var (
		r           types.ProgressionRecord
		lastUpdated string
	)
	err := row.Scan(&r.OwnerID, &r.ExerciseID, &r.CurrentLoadRecommendation, &r.MicrocyclesCompleted,
		&r.DeloadCounter, &r.BestEstimated1RM, &r.LastVolumeLoad, &r.LastEffectiveSets, &lastUpdated)
	if err != nil {
		return nil, err
	}
	if r.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return nil, err
	}
	return &r, nil
}
