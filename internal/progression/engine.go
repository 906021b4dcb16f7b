// Package progression turns completed microcycles into load recommendations
// and schedules deloads.
package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Deload content factors.
const (
	DeloadIntensityFactor = 0.70
	DeloadVolumeFactor    = 0.50
	noteDeload            = "deload: -30% load, -50% sets"
)

// Settings tunes the engine.
type Settings struct {
	// IncrementPercent is the load increase after a completed microcycle.
	IncrementPercent float64
	// DeloadEvery is the deload period in completed microcycles.
	DeloadEvery int
}

// DefaultSettings returns +2.5% per microcycle and a deload every sixth.
func DefaultSettings() Settings {
	return Settings{
		IncrementPercent: types.DefaultIncrementPercent,
		DeloadEvery:      types.DefaultDeloadEvery,
	}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	var errs []error
	if s.IncrementPercent < 0 || s.IncrementPercent > 20 {
		errs = append(errs, fmt.Errorf("increment percent %v not in [0, 20]", s.IncrementPercent))
	}
	if s.DeloadEvery < 1 {
		errs = append(errs, fmt.Errorf("deload period %d must be positive", s.DeloadEvery))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", types.ErrValidation, err)
	}
	return nil
}

// Engine evaluates microcycle completion. It holds no state of its own; every
// call works on the Tables of the caller's unit of work.
type Engine struct {
	settings Settings
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewEngine creates an Engine. A nil logger uses slog.Default().
func NewEngine(settings Settings, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{settings: settings, logger: logger, nowFunc: time.Now}
}

// Result describes one microcycle that advanced.
type Result struct {
	PlanID               string
	Microcycle           int
	MicrocyclesCompleted int
	Exercises            []ExerciseSummary
	DeloadScheduled      bool
	DeloadMicrocycle     int
}

// OnSessionTerminal checks whether the microcycle of s has just become fully
// terminal and, if so, advances progression. It returns nil when nothing
// advanced: the microcycle is still open, has no completed session, is a
// calibration microcycle, or was already counted.
func (e *Engine) OnSessionTerminal(ctx context.Context, tx types.Tables, s *types.ScheduledSession) (*Result, error) {
	if s.NoProgression {
		return nil, nil
	}
	plan, err := tx.Plans().Get(ctx, s.PlanID)
	if err != nil {
		return nil, fmt.Errorf("loading plan %s: %w", s.PlanID, err)
	}

	sessions, err := tx.Sessions().ListByMicrocycle(ctx, s.PlanID, s.MicrocycleIndex)
	if err != nil {
		return nil, fmt.Errorf("listing microcycle %d: %w", s.MicrocycleIndex, err)
	}
	if !microcycleAdvances(sessions, plan.CycleLength) {
		return nil, nil
	}

	now := e.nowFunc().UTC()
	marked, err := tx.Cycles().MarkMicrocycle(ctx, plan.PlanID, s.MicrocycleIndex, now)
	if err != nil {
		return nil, fmt.Errorf("marking microcycle %d: %w", s.MicrocycleIndex, err)
	}
	if !marked {
		return nil, nil
	}

	var sets []types.SetLog
	for _, ss := range sessions {
		if ss.Status != types.SessionCompleted {
			continue
		}
		logged, err := tx.SetLogs().ListBySession(ctx, ss.SessionID)
		if err != nil {
			return nil, fmt.Errorf("listing sets of session %s: %w", ss.SessionID, err)
		}
		sets = append(sets, logged...)
	}
	summaries := Summarize(sets)

	res := &Result{PlanID: plan.PlanID, Microcycle: s.MicrocycleIndex, Exercises: summaries}
	if err := e.advanceCycle(ctx, tx, plan, res, now); err != nil {
		return nil, err
	}
	for _, sum := range summaries {
		if err := e.advanceExercise(ctx, tx, plan.OwnerID, sum, now); err != nil {
			return nil, err
		}
	}

	e.logger.Info("microcycle completed",
		slog.String("owner", plan.OwnerID),
		slog.String("plan", plan.PlanID),
		slog.Int("microcycle", s.MicrocycleIndex),
		slog.Int("exercises", len(summaries)),
		slog.Bool("deload_scheduled", res.DeloadScheduled),
	)
	return res, nil
}

// microcycleAdvances reports whether every session of a full microcycle is
// terminal with at least one completed.
func microcycleAdvances(sessions []types.ScheduledSession, cycleLength int) bool {
	if len(sessions) < cycleLength {
		return false
	}
	completed := false
	for _, s := range sessions {
		if !s.Status.IsTerminal() {
			return false
		}
		if s.NoProgression {
			return false
		}
		if s.Status == types.SessionCompleted {
			completed = true
		}
	}
	return completed
}

// advanceCycle bumps the plan-level counter and, on a deload boundary,
// reduces the content of the following microcycle.
func (e *Engine) advanceCycle(ctx context.Context, tx types.Tables, plan *types.TrainingPlan, res *Result, now time.Time) error {
	state, err := tx.Cycles().Get(ctx, plan.PlanID)
	if err != nil {
		return fmt.Errorf("loading cycle state: %w", err)
	}
	state.MicrocyclesCompleted++
	state.UpdatedAt = now
	res.MicrocyclesCompleted = state.MicrocyclesCompleted

	next := res.Microcycle + 1
	if types.DeloadDue(state.MicrocyclesCompleted, e.settings.DeloadEvery) && next <= plan.TotalMicrocycles {
		state.DeloadCounter++
		state.DeloadMicrocycle = next
		res.DeloadScheduled = true
		res.DeloadMicrocycle = next
		if err := e.scheduleDeload(ctx, tx, plan.PlanID, next); err != nil {
			return err
		}
	}
	return tx.Cycles().Put(ctx, state)
}

func (e *Engine) scheduleDeload(ctx context.Context, tx types.Tables, planID string, microcycle int) error {
	sessions, err := tx.Sessions().ListByMicrocycle(ctx, planID, microcycle)
	if err != nil {
		return fmt.Errorf("listing deload microcycle %d: %w", microcycle, err)
	}
	for i := range sessions {
		s := &sessions[i]
		if s.Status != types.SessionPending || s.ReducedIntensity {
			continue
		}
		s.ReducedIntensity = true
		if err := tx.Sessions().Put(ctx, s); err != nil {
			return fmt.Errorf("marking session %s reduced: %w", s.SessionID, err)
		}
		entries, err := tx.Assignments().ListBySession(ctx, s.SessionID)
		if err != nil {
			return fmt.Errorf("listing assignments of %s: %w", s.SessionID, err)
		}
		for j := range entries {
			a := ApplyDeload(entries[j])
			if err := tx.Assignments().Put(ctx, &a); err != nil {
				return fmt.Errorf("reducing assignment %s: %w", a.AssignmentID, err)
			}
		}
	}
	return nil
}

// ApplyDeload scales an assignment to deload content.
func ApplyDeload(a types.ExerciseAssignment) types.ExerciseAssignment {
	a.IntensityPercent = math.Round(a.IntensityPercent*DeloadIntensityFactor*2) / 2
	a.TargetSets = max(1, int(math.Ceil(float64(a.TargetSets)*DeloadVolumeFactor)))
	a.Notes = append(append([]string(nil), a.Notes...), noteDeload)
	return a
}

func (e *Engine) advanceExercise(ctx context.Context, tx types.Tables, ownerID string, sum ExerciseSummary, now time.Time) error {
	rec, err := tx.Progression().Get(ctx, ownerID, sum.ExerciseID)
	switch {
	case errors.Is(err, types.ErrProgressionNotFound):
		rec = &types.ProgressionRecord{
			OwnerID:                   ownerID,
			ExerciseID:                sum.ExerciseID,
			CurrentLoadRecommendation: sum.TopWeight,
		}
	case err != nil:
		return fmt.Errorf("loading progression of %s: %w", sum.ExerciseID, err)
	}

	rec.MicrocyclesCompleted++
	if types.DeloadDue(rec.MicrocyclesCompleted, e.settings.DeloadEvery) {
		rec.DeloadCounter++
	} else {
		rec.CurrentLoadRecommendation = roundLoad(rec.CurrentLoadRecommendation * (1 + e.settings.IncrementPercent/100))
	}
	rec.BestEstimated1RM = max(rec.BestEstimated1RM, sum.BestEstimated1RM)
	rec.LastVolumeLoad = sum.VolumeLoad
	rec.LastEffectiveSets = sum.EffectiveSets
	rec.LastUpdated = now

	if err := tx.Progression().Put(ctx, rec); err != nil {
		return fmt.Errorf("saving progression of %s: %w", sum.ExerciseID, err)
	}
	return nil
}

// Status answers a progression query. An exercise without history is
// reported as not tracked.
func (e *Engine) Status(ctx context.Context, tx types.Tables, ownerID, exerciseID string) (types.ProgressionStatus, error) {
	st := types.ProgressionStatus{OwnerID: ownerID, ExerciseID: exerciseID}
	rec, err := tx.Progression().Get(ctx, ownerID, exerciseID)
	if errors.Is(err, types.ErrProgressionNotFound) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("loading progression of %s: %w", exerciseID, err)
	}
	st.Tracked = true
	st.Record = rec
	st.DeloadDue = types.DeloadDue(rec.MicrocyclesCompleted, e.settings.DeloadEvery)
	return st, nil
}

func roundLoad(v float64) float64 {
	return math.Round(v*100) / 100
}
