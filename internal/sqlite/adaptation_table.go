package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const (
	blockColumns = `block_id, owner_id, block_type, duration_weeks, weeks_tracked, status,
	adherence_percent, mean_rir, tech_flag_rate, load_progress_percent, started_at, transitioned_at, updated_at`

	sqlUpsertBlock = `INSERT INTO adaptation_blocks (` + blockColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(block_id) DO UPDATE SET
		weeks_tracked = excluded.weeks_tracked,
		status = excluded.status,
		adherence_percent = excluded.adherence_percent,
		mean_rir = excluded.mean_rir,
		tech_flag_rate = excluded.tech_flag_rate,
		load_progress_percent = excluded.load_progress_percent,
		transitioned_at = excluded.transitioned_at,
		updated_at = excluded.updated_at`

	sqlCurrentBlock = `SELECT ` + blockColumns + ` FROM adaptation_blocks WHERE owner_id = ?
	ORDER BY started_at DESC, block_id DESC LIMIT 1`

	sqlUpsertWeek = `INSERT INTO adaptation_weeks
	(block_id, week_number, sessions_planned, sessions_completed, mean_rir, technique_flags, initial_load,
	average_load, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(block_id, week_number) DO UPDATE SET
		sessions_planned = excluded.sessions_planned,
		sessions_completed = excluded.sessions_completed,
		mean_rir = excluded.mean_rir,
		technique_flags = excluded.technique_flags,
		initial_load = excluded.initial_load,
		average_load = excluded.average_load,
		recorded_at = excluded.recorded_at`

	sqlListWeeks = `SELECT block_id, week_number, sessions_planned, sessions_completed, mean_rir, technique_flags,
	initial_load, average_load, recorded_at FROM adaptation_weeks WHERE block_id = ? ORDER BY week_number`

	sqlInsertFlag = `INSERT INTO technique_flags
	(flag_id, block_id, owner_id, week_number, exercise_id, severity, description, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	sqlListFlags = `SELECT flag_id, block_id, owner_id, week_number, exercise_id, severity, description, created_at
	FROM technique_flags WHERE block_id = ? ORDER BY week_number, created_at`

	sqlInsertWorkout = `INSERT INTO adaptation_workouts
	(workout_id, block_id, owner_id, week_number, sets, completed_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	sqlListWorkouts = `SELECT workout_id, block_id, owner_id, week_number, sets, completed_at
	FROM adaptation_workouts WHERE block_id = ? AND week_number = ? ORDER BY completed_at, workout_id`
)

// adaptationTable implements types.AdaptationTable.
type adaptationTable struct {
	tx *sql.Tx
}

func (t *adaptationTable) Put(ctx context.Context, b *types.AdaptationBlock) error {
	_, err := t.tx.ExecContext(ctx, sqlUpsertBlock,
		b.BlockID, b.OwnerID, string(b.BlockType), b.DurationWeeks, b.WeeksTracked, string(b.Status),
		b.Criteria.AdherencePercent, b.Criteria.MeanRIR, b.Criteria.TechFlagRate, b.Criteria.LoadProgressPercent,
		formatTime(b.StartedAt), formatTimePtr(b.TransitionedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: owner %s", types.ErrBlockExists, b.OwnerID)
		}
		return fmt.Errorf("saving adaptation block %s: %w", b.BlockID, err)
	}
	return nil
}

func (t *adaptationTable) Current(ctx context.Context, ownerID string) (*types.AdaptationBlock, error) {
	var (
		b                    types.AdaptationBlock
		blockType, status    string
		startedAt, updatedAt string
		transitionedAt       sql.NullString
	)
	err := t.tx.QueryRowContext(ctx, sqlCurrentBlock, ownerID).Scan(
		&b.BlockID, &b.OwnerID, &blockType, &b.DurationWeeks, &b.WeeksTracked, &status,
		&b.Criteria.AdherencePercent, &b.Criteria.MeanRIR, &b.Criteria.TechFlagRate, &b.Criteria.LoadProgressPercent,
		&startedAt, &transitionedAt, &updatedAt)
	if err != nil {
		return nil, notFound(err, types.ErrBlockNotFound, ownerID)
	}
	b.BlockType = types.BlockType(blockType)
	b.Status = types.BlockStatus(status)
	if b.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if b.TransitionedAt, err = parseTimePtr(transitionedAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *adaptationTable) PutWeek(ctx context.Context, w *types.AdaptationWeek) error {
	_, err := t.tx.ExecContext(ctx, sqlUpsertWeek,
		w.BlockID, w.WeekNumber, w.SessionsPlanned, w.SessionsCompleted, w.MeanRIR, w.TechniqueFlags,
		w.InitialLoad, w.AverageLoad, formatTime(w.RecordedAt))
	if err != nil {
		return fmt.Errorf("saving week %d of %s: %w", w.WeekNumber, w.BlockID, err)
	}
	return nil
}

func (t *adaptationTable) ListWeeks(ctx context.Context, blockID string) ([]types.AdaptationWeek, error) {
	rows, err := t.tx.QueryContext(ctx, sqlListWeeks, blockID)
	if err != nil {
		return nil, fmt.Errorf("listing weeks: %w", err)
	}
	defer rows.Close()

	var out []types.AdaptationWeek
	for rows.Next() {
		var (
			w          types.AdaptationWeek
			recordedAt string
		)
		if err := rows.Scan(&w.BlockID, &w.WeekNumber, &w.SessionsPlanned, &w.SessionsCompleted, &w.MeanRIR,
			&w.TechniqueFlags, &w.InitialLoad, &w.AverageLoad, &recordedAt); err != nil {
			return nil, err
		}
		if w.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (t *adaptationTable) AddFlag(ctx context.Context, f *types.TechniqueFlag) error {
	_, err := t.tx.ExecContext(ctx, sqlInsertFlag,
		f.FlagID, f.BlockID, f.OwnerID, f.WeekNumber, f.ExerciseID, string(f.Severity), f.Description,
		formatTime(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving technique flag: %w", err)
	}
	return nil
}

func (t *adaptationTable) ListFlags(ctx context.Context, blockID string) ([]types.TechniqueFlag, error) {
	rows, err := t.tx.QueryContext(ctx, sqlListFlags, blockID)
	if err != nil {
		return nil, fmt.Errorf("listing technique flags: %w", err)
	}
	defer rows.Close()

	var out []types.TechniqueFlag
	for rows.Next() {
		var (
			f                   types.TechniqueFlag
			severity, createdAt string
		)
		if err := rows.Scan(&f.FlagID, &f.BlockID, &f.OwnerID, &f.WeekNumber, &f.ExerciseID, &severity,
			&f.Description, &createdAt); err != nil {
			return nil, err
		}
		f.Severity = types.Severity(severity)
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (t *adaptationTable) AddWorkout(ctx context.Context, w *types.AdaptationWorkout) error {
	sets, err := json.Marshal(w.Sets)
	if err != nil {
		return fmt.Errorf("encoding workout sets: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, sqlInsertWorkout,
		w.WorkoutID, w.BlockID, w.OwnerID, w.WeekNumber, string(sets), formatTime(w.CompletedAt)); err != nil {
		return fmt.Errorf("saving adaptation workout: %w", err)
	}
	return nil
}

func (t *adaptationTable) ListWorkouts(ctx context.Context, blockID string, weekNumber int) ([]types.AdaptationWorkout, error) {
	rows, err := t.tx.QueryContext(ctx, sqlListWorkouts, blockID, weekNumber)
	if err != nil {
		return nil, fmt.Errorf("listing adaptation workouts: %w", err)
	}
	defer rows.Close()

	var out []types.AdaptationWorkout
	for rows.Next() {
		var (
			w                 types.AdaptationWorkout
			sets, completedAt string
		)
		if err := rows.Scan(&w.WorkoutID, &w.BlockID, &w.OwnerID, &w.WeekNumber, &sets, &completedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sets), &w.Sets); err != nil {
			return nil, fmt.Errorf("decoding workout sets: %w", err)
		}
		if w.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
