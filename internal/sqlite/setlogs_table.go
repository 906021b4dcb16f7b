package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const (
	setLogColumns = `set_id, session_id, owner_id, exercise_id, set_number, weight, reps, rir,
	is_warmup, is_effective, volume_load, estimated_1rm, logged_at`

	sqlInsertSetLog = `INSERT INTO set_logs (` + setLogColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlListSetLogs  = `SELECT ` + setLogColumns + ` FROM set_logs WHERE session_id = ? ORDER BY exercise_id, set_number`
)

// setLogTable implements types.SetLogTable.
type setLogTable struct {
	tx *sql.Tx
}

func (t *setLogTable) Append(ctx context.Context, s *types.SetLog) error {
	_, err := t.tx.ExecContext(ctx, sqlInsertSetLog,
		s.SetID, s.SessionID, s.OwnerID, s.ExerciseID, s.SetNumber, s.Weight, s.Reps, s.RIR,
		s.IsWarmup, s.IsEffective, s.VolumeLoad, s.Estimated1RM, formatTime(s.LoggedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: set %d of %s", types.ErrDuplicateSet, s.SetNumber, s.ExerciseID)
		}
		return fmt.Errorf("logging set: %w", err)
	}
	return nil
}

func (t *setLogTable) ListBySession(ctx context.Context, sessionID string) ([]types.SetLog, error) {
	rows, err := t.tx.QueryContext(ctx, sqlListSetLogs, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing sets: %w", err)
	}
	defer rows.Close()

	var out []types.SetLog
	for rows.Next() {
		var (
			s        types.SetLog
			loggedAt string
		)
		if err := rows.Scan(&s.SetID, &s.SessionID, &s.OwnerID, &s.ExerciseID, &s.SetNumber, &s.Weight, &s.Reps,
			&s.RIR, &s.IsWarmup, &s.IsEffective, &s.VolumeLoad, &s.Estimated1RM, &loggedAt); err != nil {
			return nil, err
		}
		if s.LoggedAt, err = parseTime(loggedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
