package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const (
	planColumns = `plan_id, owner_id, level, sex, priority_muscles, cycle_length, total_microcycles,
	has_calibration_week, include_saturday, start_date, seed, status, created_at, updated_at`

	sqlUpsertPlan = `INSERT INTO plans (` + planColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(plan_id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at`

	sqlGetPlan          = `SELECT ` + planColumns + ` FROM plans WHERE plan_id = ?`
	sqlListPlansByOwner = `SELECT ` + planColumns + ` FROM plans WHERE owner_id = ? ORDER BY created_at DESC, plan_id DESC`
)

// planTable implements types.PlanTable. Only status and updated_at change
// after creation.
type planTable struct {
	tx *sql.Tx
}

func (t *planTable) Put(ctx context.Context, p *types.TrainingPlan) error {
	muscles, err := encodeStrings(p.PriorityMuscles)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, sqlUpsertPlan,
		p.PlanID, p.OwnerID, string(p.Level), string(p.Sex), muscles, p.CycleLength, p.TotalMicrocycles,
		p.HasCalibrationWeek, p.IncludeSaturday, formatDatePtr(p.StartDate), p.Seed, string(p.Status),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", p.PlanID, err)
	}
	return nil
}

func (t *planTable) Get(ctx context.Context, planID string) (*types.TrainingPlan, error) {
	p, err := scanPlan(t.tx.QueryRowContext(ctx, sqlGetPlan, planID))
	if err != nil {
		return nil, notFound(err, types.ErrPlanNotFound, planID)
	}
	return p, nil
}

func (t *planTable) ListByOwner(ctx context.Context, ownerID string) ([]types.TrainingPlan, error) {
	rows, err := t.tx.QueryContext(ctx, sqlListPlansByOwner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var out []types.TrainingPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPlan(row scanner) (*types.TrainingPlan, error) {
	var (
		p                    types.TrainingPlan
		level, sex, status   string
		muscles              string
		startDate            sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&p.PlanID, &p.OwnerID, &level, &sex, &muscles, &p.CycleLength, &p.TotalMicrocycles,
		&p.HasCalibrationWeek, &p.IncludeSaturday, &startDate, &p.Seed, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Level = types.Level(level)
	p.Sex = types.Sex(sex)
	p.Status = types.PlanStatus(status)
	if p.PriorityMuscles, err = decodeStrings(muscles); err != nil {
		return nil, err
	}
	if p.StartDate, err = parseDatePtr(startDate); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

const (
	sqlUpsertCycleState = `INSERT INTO cycle_states
	(plan_id, owner_id, microcycles_completed, deload_counter, deload_microcycle, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(plan_id) DO UPDATE SET
		microcycles_completed = excluded.microcycles_completed,
		deload_counter = excluded.deload_counter,
		deload_microcycle = excluded.deload_microcycle,
		updated_at = excluded.updated_at`

	sqlGetCycleState = `SELECT plan_id, owner_id, microcycles_completed, deload_counter, deload_microcycle, updated_at
	FROM cycle_states WHERE plan_id = ?`

	sqlMarkMicrocycle = `INSERT INTO microcycle_completions (plan_id, microcycle, completed_at)
	VALUES (?, ?, ?) ON CONFLICT(plan_id, microcycle) DO NOTHING`
)

// cycleTable implements types.CycleTable.
type cycleTable struct {
	tx *sql.Tx
}

func (t *cycleTable) Put(ctx context.Context, c *types.CycleState) error {
	_, err := t.tx.ExecContext(ctx, sqlUpsertCycleState,
		c.PlanID, c.OwnerID, c.MicrocyclesCompleted, c.DeloadCounter, c.DeloadMicrocycle, formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving cycle state %s: %w", c.PlanID, err)
	}
	return nil
}

func (t *cycleTable) Get(ctx context.Context, planID string) (*types.CycleState, error) {
	var (
		c         types.CycleState
		updatedAt string
	)
	err := t.tx.QueryRowContext(ctx, sqlGetCycleState, planID).Scan(
		&c.PlanID, &c.OwnerID, &c.MicrocyclesCompleted, &c.DeloadCounter, &c.DeloadMicrocycle, &updatedAt)
	if err != nil {
		return nil, notFound(err, types.ErrCycleStateNotFound, planID)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *cycleTable) MarkMicrocycle(ctx context.Context, planID string, microcycle int, at time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx, sqlMarkMicrocycle, planID, microcycle, formatTime(at))
	if err != nil {
		return false, fmt.Errorf("marking microcycle %d of %s: %w", microcycle, planID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
