package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const (
	assignmentColumns = `assignment_id, session_id, position, exercise_id, exercise_name, category, exercise_type,
	target_sets, target_rep_range, target_rir, rest_seconds, intensity_percent, no_progression, notes,
	status, series_completed`

	sqlUpsertAssignment = `INSERT INTO assignments (` + assignmentColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(assignment_id) DO UPDATE SET
		position = excluded.position,
		target_sets = excluded.target_sets,
		target_rir = excluded.target_rir,
		rest_seconds = excluded.rest_seconds,
		intensity_percent = excluded.intensity_percent,
		notes = excluded.notes,
		status = excluded.status,
		series_completed = excluded.series_completed`

	sqlListAssignments = `SELECT ` + assignmentColumns + ` FROM assignments WHERE session_id = ? ORDER BY position`
	sqlGetAssignment   = `SELECT ` + assignmentColumns + ` FROM assignments WHERE session_id = ? AND exercise_id = ?`
)

// assignmentTable implements types.AssignmentTable.
type assignmentTable struct {
	tx *sql.Tx
}

func (t *assignmentTable) Put(ctx context.Context, a *types.ExerciseAssignment) error {
	notes, err := encodeStrings(a.Notes)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, sqlUpsertAssignment,
		a.AssignmentID, a.SessionID, a.Order, a.ExerciseID, a.ExerciseName, a.Category, string(a.Type),
		a.TargetSets, a.TargetRepRange, a.TargetRIR, a.RestSeconds, a.IntensityPercent, a.NoProgression,
		notes, string(a.Status), a.SeriesCompleted,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: exercise %s already assigned to session %s", types.ErrConflict,
				a.ExerciseID, a.SessionID)
		}
		return fmt.Errorf("saving assignment %s: %w", a.AssignmentID, err)
	}
	return nil
}

func (t *assignmentTable) ListBySession(ctx context.Context, sessionID string) ([]types.ExerciseAssignment, error) {
	rows, err := t.tx.QueryContext(ctx, sqlListAssignments, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var out []types.ExerciseAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (t *assignmentTable) Get(ctx context.Context, sessionID, exerciseID string) (*types.ExerciseAssignment, error) {
	a, err := scanAssignment(t.tx.QueryRowContext(ctx, sqlGetAssignment, sessionID, exerciseID))
	if err != nil {
		return nil, notFound(err, types.ErrExerciseNotFound, exerciseID)
	}
	return a, nil
}

func scanAssignment(row scanner) (*types.ExerciseAssignment, error) {
	var (
		a                   types.ExerciseAssignment
		exType, status, nts string
	)
	err := row.Scan(&a.AssignmentID, &a.SessionID, &a.Order, &a.ExerciseID, &a.ExerciseName, &a.Category, &exType,
		&a.TargetSets, &a.TargetRepRange, &a.TargetRIR, &a.RestSeconds, &a.IntensityPercent, &a.NoProgression,
		&nts, &status, &a.SeriesCompleted)
	if err != nil {
		return nil, err
	}
	a.Type = types.ExerciseType(exType)
	a.Status = types.SessionStatus(status)
	if a.Notes, err = decodeStrings(nts); err != nil {
		return nil, err
	}
	return &a, nil
}
