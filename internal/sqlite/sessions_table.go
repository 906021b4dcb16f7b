package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const (
	sessionColumns = `session_id, plan_id, owner_id, microcycle_index, cycle_day, session_number, session_name,
	calendar_date, weekday_name, status, calibration, no_progression, reduced_intensity, substitute,
	started_at, completed_at, last_activity_at, warmup_seconds, created_at`

	sqlUpsertSession = `INSERT INTO sessions (` + sessionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		session_name = excluded.session_name,
		status = excluded.status,
		reduced_intensity = excluded.reduced_intensity,
		started_at = excluded.started_at,
		completed_at = excluded.completed_at,
		last_activity_at = excluded.last_activity_at,
		warmup_seconds = excluded.warmup_seconds`

	sqlGetSession  = `SELECT ` + sessionColumns + ` FROM sessions WHERE session_id = ?`
	sqlFindSlot    = `SELECT ` + sessionColumns + ` FROM sessions WHERE plan_id = ? AND microcycle_index = ? AND cycle_day = ?`
	sqlListPlan    = `SELECT ` + sessionColumns + ` FROM sessions WHERE plan_id = ? ORDER BY microcycle_index, cycle_day`
	sqlListMicro   = `SELECT ` + sessionColumns + ` FROM sessions WHERE plan_id = ? AND microcycle_index = ? ORDER BY cycle_day`
	sqlListActive  = `SELECT ` + sessionColumns + ` FROM sessions WHERE status = 'in_progress' AND owner_id = ? ORDER BY started_at`
	sqlListActiveA = `SELECT ` + sessionColumns + ` FROM sessions WHERE status = 'in_progress' ORDER BY owner_id, started_at`
)

// sessionTable implements types.SessionTable.
type sessionTable struct {
	tx *sql.Tx
}

func (t *sessionTable) Put(ctx context.Context, s *types.ScheduledSession) error {
	_, err := t.tx.ExecContext(ctx, sqlUpsertSession,
		s.SessionID, s.PlanID, s.OwnerID, s.MicrocycleIndex, s.CycleDay, s.SessionNumber, s.SessionName,
		formatDatePtr(s.CalendarDate), s.WeekdayName, string(s.Status),
		s.Calibration, s.NoProgression, s.ReducedIntensity, s.Substitute,
		formatTimePtr(s.StartedAt), formatTimePtr(s.CompletedAt), formatTimePtr(s.LastActivityAt),
		s.WarmupSeconds, formatTime(s.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slot M%d D%d of plan %s is taken", types.ErrConflict,
				s.MicrocycleIndex, s.CycleDay, s.PlanID)
		}
		return fmt.Errorf("saving session %s: %w", s.SessionID, err)
	}
	return nil
}

func (t *sessionTable) Get(ctx context.Context, sessionID string) (*types.ScheduledSession, error) {
	s, err := scanSession(t.tx.QueryRowContext(ctx, sqlGetSession, sessionID))
	if err != nil {
		return nil, notFound(err, types.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (t *sessionTable) FindSlot(ctx context.Context, planID string, microcycle, cycleDay int) (*types.ScheduledSession, error) {
	s, err := scanSession(t.tx.QueryRowContext(ctx, sqlFindSlot, planID, microcycle, cycleDay))
	if err != nil {
		return nil, notFound(err, types.ErrSessionNotFound, fmt.Sprintf("%s M%d D%d", planID, microcycle, cycleDay))
	}
	return s, nil
}

func (t *sessionTable) ListByPlan(ctx context.Context, planID string) ([]types.ScheduledSession, error) {
	return t.list(ctx, sqlListPlan, planID)
}

func (t *sessionTable) ListByMicrocycle(ctx context.Context, planID string, microcycle int) ([]types.ScheduledSession, error) {
	return t.list(ctx, sqlListMicro, planID, microcycle)
}

func (t *sessionTable) ListInProgress(ctx context.Context, ownerID string) ([]types.ScheduledSession, error) {
	if ownerID == "" {
		return t.list(ctx, sqlListActiveA)
	}
	return t.list(ctx, sqlListActive, ownerID)
}

func (t *sessionTable) list(ctx context.Context, query string, args ...any) ([]types.ScheduledSession, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []types.ScheduledSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSession(row scanner) (*types.ScheduledSession, error) {
	var (
		s                              types.ScheduledSession
		status, createdAt              string
		date                           sql.NullString
		startedAt, completedAt, active sql.NullString
	)
	err := row.Scan(&s.SessionID, &s.PlanID, &s.OwnerID, &s.MicrocycleIndex, &s.CycleDay, &s.SessionNumber,
		&s.SessionName, &date, &s.WeekdayName, &status, &s.Calibration, &s.NoProgression, &s.ReducedIntensity,
		&s.Substitute, &startedAt, &completedAt, &active, &s.WarmupSeconds, &createdAt)
	if err != nil {
		return nil, err
	}
	s.Status = types.SessionStatus(status)
	if s.CalendarDate, err = parseDatePtr(date); err != nil {
		return nil, err
	}
	if s.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return nil, err
	}
	if s.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if s.LastActivityAt, err = parseTimePtr(active); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &s, nil
}
