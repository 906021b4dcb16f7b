package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mesh-intelligence/cyclecoach/internal/cycle"
	"github.com/mesh-intelligence/cyclecoach/internal/progression"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// substitute creates a pending session for a slot the schedule does not
// have. Content is copied from the nearest scheduled session of the same
// kind, preferring the same cycle day; without one the substituter draws
// from the catalog. Calibration and deload adjustments follow the slot's own
// microcycle.
func (s *Service) substitute(ctx context.Context, tx types.Tables, plan *types.TrainingPlan, microcycle, cycleDay int, now time.Time) (*types.ScheduledSession, []types.ExerciseAssignment, error) {
	sessions, err := tx.Sessions().ListByPlan(ctx, plan.PlanID)
	if err != nil {
		return nil, nil, err
	}

	sess := &types.ScheduledSession{
		SessionID:       types.NewID(),
		PlanID:          plan.PlanID,
		OwnerID:         plan.OwnerID,
		MicrocycleIndex: microcycle,
		CycleDay:        cycleDay,
		SessionNumber:   (microcycle-plan.FirstMicrocycle())*plan.CycleLength + cycleDay,
		Status:          types.SessionPending,
		Calibration:     microcycle == 0,
		NoProgression:   microcycle == 0,
		Substitute:      true,
		CreatedAt:       now,
	}

	var entries []types.ExerciseAssignment
	source := "catalog"
	for _, cand := range sourcesFor(sessions, microcycle, cycleDay) {
		src, err := tx.Assignments().ListBySession(ctx, cand.SessionID)
		if err != nil {
			return nil, nil, err
		}
		if len(src) == 0 {
			continue
		}
		bp := cycle.Blueprint{CycleDay: cycleDay, SessionName: cand.SessionName, Calibration: cand.Calibration}
		for _, a := range src {
			a.AssignmentID = types.NewID()
			a.SessionID = sess.SessionID
			a.Status = types.SessionPending
			a.SeriesCompleted = 0
			a.Notes = append([]string(nil), a.Notes...)
			bp.Assignments = append(bp.Assignments, a)
		}
		if sess.Calibration && !cand.Calibration {
			bp = cycle.Calibrator{}.Calibrate([]cycle.Blueprint{bp})[0]
		}
		sess.SessionName = bp.SessionName
		entries = bp.Assignments
		source = cand.SessionID
		break
	}

	if len(entries) == 0 {
		if s.subst == nil {
			return nil, nil, fmt.Errorf("%w: no content for M%d D%d of plan %s",
				types.ErrDependencyUnavailable, microcycle, cycleDay, plan.PlanID)
		}
		bp, err := s.subst.Substitute(ctx, cycle.OwnerOf(plan), cycleDay)
		if err != nil {
			return nil, nil, err
		}
		if sess.Calibration {
			bp = cycle.Calibrator{}.Calibrate([]cycle.Blueprint{bp})[0]
		}
		sess.SessionName = bp.SessionName
		for _, a := range bp.Assignments {
			a.AssignmentID = types.NewID()
			a.SessionID = sess.SessionID
			entries = append(entries, a)
		}
	}

	state, err := tx.Cycles().Get(ctx, plan.PlanID)
	switch {
	case err == nil && state.DeloadActive(microcycle):
		sess.ReducedIntensity = true
		for i := range entries {
			if !entries[i].NoProgression {
				entries[i] = progression.ApplyDeload(entries[i])
			}
		}
	case err != nil && !errors.Is(err, types.ErrCycleStateNotFound):
		return nil, nil, err
	}

	if err := tx.Sessions().Put(ctx, sess); err != nil {
		return nil, nil, err
	}
	for i := range entries {
		if err := tx.Assignments().Put(ctx, &entries[i]); err != nil {
			return nil, nil, err
		}
	}

	s.logger.Warn("scheduled session missing, substitute created",
		slog.String("owner", plan.OwnerID),
		slog.String("plan", plan.PlanID),
		slog.Int("microcycle", microcycle),
		slog.Int("cycle_day", cycleDay),
		slog.String("source", source),
	)
	return sess, entries, nil
}

// sourcesFor returns the sessions whose content may be copied into the
// slot, best first. Deload sessions never qualify. A main-cycle slot only
// takes main-cycle content; a calibration slot prefers calibration content
// and falls back to main-cycle content, which the caller calibrates.
func sourcesFor(sessions []types.ScheduledSession, microcycle, cycleDay int) []types.ScheduledSession {
	calibration := microcycle == 0
	var same, main []types.ScheduledSession
	for _, s := range byDistance(sessions, microcycle, cycleDay) {
		switch {
		case s.ReducedIntensity:
		case s.Calibration == calibration:
			same = append(same, s)
		case calibration:
			main = append(main, s)
		}
	}
	return append(same, main...)
}

// byDistance orders sessions by distance in cycle days, then in
// microcycles, from the requested slot. Earlier slots win ties.
func byDistance(sessions []types.ScheduledSession, microcycle, cycleDay int) []types.ScheduledSession {
	out := append([]types.ScheduledSession(nil), sessions...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if da, db := abs(a.CycleDay-cycleDay), abs(b.CycleDay-cycleDay); da != db {
			return da < db
		}
		if da, db := abs(a.MicrocycleIndex-microcycle), abs(b.MicrocycleIndex-microcycle); da != db {
			return da < db
		}
		return a.SessionNumber < b.SessionNumber
	})
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
