package coach

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/cyclecoach/internal/adaptation"
	"github.com/mesh-intelligence/cyclecoach/internal/calendar"
	"github.com/mesh-intelligence/cyclecoach/internal/cycle"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// GenerateRequest describes the plan to generate. Zero values select the
// defaults: the level's microcycle count, a leading calibration microcycle,
// no calendar dates and the configured seed.
type GenerateRequest struct {
	OwnerID          string
	Level            types.Level
	Sex              types.Sex
	PriorityMuscles  []string
	TotalMicrocycles int
	// IncludeCalibration nil means true.
	IncludeCalibration *bool
	// StartDate is YYYY-MM-DD, "today", "next_monday" or empty for a
	// date-less Monday-to-Friday mapping.
	StartDate       string
	IncludeSaturday bool
	Seed            int64
}

// PlanView is a plan with its cycle state and schedule.
type PlanView struct {
	Plan             types.TrainingPlan       `json:"plan"`
	Cycle            *types.CycleState        `json:"cycle,omitempty"`
	Sessions         []types.ScheduledSession `json:"sessions"`
	DayMapping       map[string]string        `json:"day_mapping,omitempty"`
	FirstWeekPattern string                   `json:"first_week_pattern,omitempty"`
}

// scheduled is one generated session before it is stored.
type scheduled struct {
	microcycle int
	blueprint  cycle.Blueprint
}

// GeneratePlan builds a draft plan and its whole schedule. The plan, its
// cycle state, every session and every exercise entry are stored in one unit
// of work. Owners holding an adaptation block that has not transitioned are
// refused with ErrAdaptationPending.
func (c *Coach) GeneratePlan(ctx context.Context, req GenerateRequest) (*PlanView, error) {
	if req.OwnerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	level, err := types.ParseLevel(string(req.Level))
	if err != nil {
		return nil, err
	}
	sex, err := types.ParseSex(string(req.Sex))
	if err != nil {
		return nil, err
	}
	total := req.TotalMicrocycles
	if total == 0 {
		total = level.DefaultMicrocycles()
	}
	if total < 0 || total > types.MaxMicrocycles {
		return nil, fmt.Errorf("%w: %d, allowed 1-%d", types.ErrInvalidMicrocycles, total, types.MaxMicrocycles)
	}
	calibration := req.IncludeCalibration == nil || *req.IncludeCalibration
	if c.repo == nil {
		return nil, fmt.Errorf("%w: no exercise catalog", types.ErrDependencyUnavailable)
	}

	local := c.nowFunc()
	now := local.UTC()
	start, err := calendar.ResolveStart(req.StartDate, local)
	if err != nil {
		return nil, err
	}

	if err := c.store.View(ctx, func(tx types.Tables) error {
		return adaptation.Gate(ctx, tx, req.OwnerID)
	}); err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = c.settings.Seed
	}
	if seed == 0 {
		seed = now.UnixNano()
	}

	owner := cycle.Owner{ID: req.OwnerID, Level: level, Sex: sex, PriorityMuscles: req.PriorityMuscles}
	builder := cycle.NewBuilder(c.repo, c.templates, cycle.NewSeededSelector(seed), c.logger.With(slog.String("component", "builder")))
	days, err := builder.Build(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("building cycle: %w", err)
	}

	var all []scheduled
	if calibration {
		for _, bp := range (cycle.Calibrator{}).Calibrate(days) {
			all = append(all, scheduled{microcycle: 0, blueprint: bp})
		}
	}
	for m := 1; m <= total; m++ {
		for _, bp := range days {
			all = append(all, scheduled{microcycle: m, blueprint: bp.Clone()})
		}
	}

	sched, err := calendar.Map(calendar.Options{
		Start:           start,
		SessionsNeeded:  len(all),
		CycleLength:     types.CycleLength,
		IncludeSaturday: req.IncludeSaturday,
	})
	if err != nil {
		return nil, err
	}

	plan := &types.TrainingPlan{
		PlanID:             types.NewID(),
		OwnerID:            req.OwnerID,
		Level:              level,
		Sex:                sex,
		PriorityMuscles:    req.PriorityMuscles,
		CycleLength:        types.CycleLength,
		TotalMicrocycles:   total,
		HasCalibrationWeek: calibration,
		IncludeSaturday:    req.IncludeSaturday,
		StartDate:          start,
		Seed:               seed,
		Status:             types.PlanDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	state := &types.CycleState{PlanID: plan.PlanID, OwnerID: plan.OwnerID, UpdatedAt: now}

	sessions := make([]types.ScheduledSession, len(all))
	for i, s := range all {
		day := sched.Days[i]
		sessions[i] = types.ScheduledSession{
			SessionID:       types.NewID(),
			PlanID:          plan.PlanID,
			OwnerID:         plan.OwnerID,
			MicrocycleIndex: s.microcycle,
			CycleDay:        day.CycleDay,
			SessionNumber:   day.SessionNumber,
			SessionName:     s.blueprint.SessionName,
			CalendarDate:    day.Date,
			WeekdayName:     day.WeekdayName,
			Status:          types.SessionPending,
			Calibration:     s.blueprint.Calibration,
			NoProgression:   s.blueprint.NoProgression,
			CreatedAt:       now,
		}
	}

	err = c.store.Update(ctx, func(tx types.Tables) error {
		if err := adaptation.Gate(ctx, tx, req.OwnerID); err != nil {
			return err
		}
		if err := tx.Plans().Put(ctx, plan); err != nil {
			return err
		}
		if err := tx.Cycles().Put(ctx, state); err != nil {
			return err
		}
		for i := range sessions {
			if err := tx.Sessions().Put(ctx, &sessions[i]); err != nil {
				return err
			}
			for _, a := range all[i].blueprint.Assignments {
				a.AssignmentID = types.NewID()
				a.SessionID = sessions[i].SessionID
				a.Status = types.SessionPending
				if err := tx.Assignments().Put(ctx, &a); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("plan generated",
		slog.String("owner", plan.OwnerID),
		slog.String("plan", plan.PlanID),
		slog.String("level", string(level)),
		slog.Int("microcycles", total),
		slog.Bool("calibration", calibration),
		slog.Int("sessions", len(sessions)),
		slog.Int64("seed", seed),
	)
	return &PlanView{
		Plan:             *plan,
		Cycle:            state,
		Sessions:         sessions,
		DayMapping:       sched.DayMapping,
		FirstWeekPattern: sched.FirstWeekPattern,
	}, nil
}

// ConfirmPlan activates a draft plan.
func (c *Coach) ConfirmPlan(ctx context.Context, ownerID, planID string) (*PlanView, error) {
	var view *PlanView
	err := c.store.Update(ctx, func(tx types.Tables) error {
		plan, err := ownedPlan(ctx, tx, ownerID, planID)
		if err != nil {
			return err
		}
		if err := plan.Confirm(c.nowFunc().UTC()); err != nil {
			return err
		}
		if err := tx.Plans().Put(ctx, plan); err != nil {
			return err
		}
		view, err = loadView(ctx, tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("plan confirmed", slog.String("owner", ownerID), slog.String("plan", planID))
	return view, nil
}

// CancelPlan cancels a draft or active plan together with every session
// that has not ended. Cancelled sessions do not count toward progression.
func (c *Coach) CancelPlan(ctx context.Context, ownerID, planID string) (*PlanView, error) {
	var (
		view      *PlanView
		cancelled int
	)
	err := c.store.Update(ctx, func(tx types.Tables) error {
		plan, err := ownedPlan(ctx, tx, ownerID, planID)
		if err != nil {
			return err
		}
		now := c.nowFunc().UTC()
		if err := plan.Cancel(now); err != nil {
			return err
		}
		if err := tx.Plans().Put(ctx, plan); err != nil {
			return err
		}

		sessions, err := tx.Sessions().ListByPlan(ctx, plan.PlanID)
		if err != nil {
			return err
		}
		for i := range sessions {
			s := &sessions[i]
			if s.Status.IsTerminal() {
				continue
			}
			if err := s.Cancel(now); err != nil {
				return err
			}
			entries, err := tx.Assignments().ListBySession(ctx, s.SessionID)
			if err != nil {
				return err
			}
			for j := range entries {
				if entries[j].Close(types.SessionCancelled) {
					if err := tx.Assignments().Put(ctx, &entries[j]); err != nil {
						return err
					}
				}
			}
			if err := tx.Sessions().Put(ctx, s); err != nil {
				return err
			}
			cancelled++
		}
		view, err = loadView(ctx, tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("plan cancelled",
		slog.String("owner", ownerID),
		slog.String("plan", planID),
		slog.Int("sessions_cancelled", cancelled),
	)
	return view, nil
}

// GetPlan returns one of the owner's plans.
func (c *Coach) GetPlan(ctx context.Context, ownerID, planID string) (*PlanView, error) {
	var view *PlanView
	err := c.store.View(ctx, func(tx types.Tables) error {
		plan, err := ownedPlan(ctx, tx, ownerID, planID)
		if err != nil {
			return err
		}
		view, err = loadView(ctx, tx, plan)
		return err
	})
	return view, err
}

// ListPlans returns the owner's plans, newest first.
func (c *Coach) ListPlans(ctx context.Context, ownerID string) ([]types.TrainingPlan, error) {
	if ownerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	var out []types.TrainingPlan
	err := c.store.View(ctx, func(tx types.Tables) error {
		var err error
		out, err = tx.Plans().ListByOwner(ctx, ownerID)
		return err
	})
	return out, err
}

func ownedPlan(ctx context.Context, tx types.Tables, ownerID, planID string) (*types.TrainingPlan, error) {
	if ownerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	plan, err := tx.Plans().Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s", types.ErrPlanNotFound, planID)
	}
	return plan, nil
}

func loadView(ctx context.Context, tx types.Tables, plan *types.TrainingPlan) (*PlanView, error) {
	view := &PlanView{Plan: *plan}
	state, err := tx.Cycles().Get(ctx, plan.PlanID)
	if err != nil {
		return nil, err
	}
	view.Cycle = state
	if view.Sessions, err = tx.Sessions().ListByPlan(ctx, plan.PlanID); err != nil {
		return nil, err
	}
	return view, nil
}
