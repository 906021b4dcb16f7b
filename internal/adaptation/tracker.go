// Package adaptation tracks the pre-cycle adaptation block of each owner and
// decides when the owner may enter the main training cycle.
package adaptation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Tracker records adaptation weeks and gates the transition to the main
// cycle.
type Tracker struct {
	store   types.Store
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewTracker creates a Tracker. A nil logger uses slog.Default().
func NewTracker(store types.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, logger: logger, nowFunc: time.Now}
}

// Status is a block with its tracked weeks and the gate results.
type Status struct {
	Block  types.AdaptationBlock  `json:"block"`
	Weeks  []types.AdaptationWeek `json:"weeks"`
	Flags  []types.TechniqueFlag  `json:"flags,omitempty"`
	Checks Checks                 `json:"checks"`
	Phase  Phase                  `json:"phase"`
	// Ready mirrors a ready block: every gate holds over the planned
	// duration.
	Ready bool `json:"ready"`
	// Full is set once the block tracked its maximum weeks.
	Full bool `json:"full"`
}

// CreateRequest opens a block. DurationWeeks zero selects the type's
// maximum.
type CreateRequest struct {
	OwnerID       string
	BlockType     types.BlockType
	DurationWeeks int
}

// Create opens a new block. An owner may hold only one block that has not
// transitioned.
func (t *Tracker) Create(ctx context.Context, req CreateRequest) (*Status, error) {
	if req.OwnerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	blockType, err := types.ParseBlockType(string(req.BlockType))
	if err != nil {
		return nil, err
	}
	weeks, err := blockType.CheckDuration(req.DurationWeeks)
	if err != nil {
		return nil, err
	}

	now := t.nowFunc().UTC()
	block := &types.AdaptationBlock{
		BlockID:       types.NewID(),
		OwnerID:       req.OwnerID,
		BlockType:     blockType,
		DurationWeeks: weeks,
		Status:        types.BlockActive,
		StartedAt:     now,
		UpdatedAt:     now,
	}
	err = t.store.Update(ctx, func(tx types.Tables) error {
		current, err := tx.Adaptation().Current(ctx, req.OwnerID)
		switch {
		case err == nil && current.Status != types.BlockTransitioned:
			return fmt.Errorf("%w: block %s is %s", types.ErrBlockExists, current.BlockID, current.Status)
		case err != nil && !errors.Is(err, types.ErrBlockNotFound):
			return err
		}
		return tx.Adaptation().Put(ctx, block)
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("adaptation block created",
		slog.String("owner", req.OwnerID),
		slog.String("block", block.BlockID),
		slog.String("type", string(blockType)),
		slog.Int("weeks", weeks),
	)
	return newStatus(block, nil, nil), nil
}

// WeekInput carries the measurements of one finished week. SessionsPlanned
// zero selects the phase's days per week. TechniqueFlags adds to the flags
// already recorded against the week.
type WeekInput struct {
	OwnerID           string
	SessionsPlanned   int
	SessionsCompleted int
	MeanRIR           float64
	TechniqueFlags    int
	InitialLoad       float64
	AverageLoad       float64
}

func (in WeekInput) validate() error {
	switch {
	case in.SessionsPlanned < 0:
		return fmt.Errorf("%w: sessions planned %d", types.ErrInvalidWeekMetrics, in.SessionsPlanned)
	case in.SessionsCompleted < 0 || in.SessionsCompleted > in.SessionsPlanned:
		return fmt.Errorf("%w: sessions completed %d of %d", types.ErrInvalidWeekMetrics, in.SessionsCompleted, in.SessionsPlanned)
	case in.MeanRIR < 0 || in.MeanRIR > types.MaxRIR || math.IsNaN(in.MeanRIR):
		return fmt.Errorf("%w: mean rir %v", types.ErrInvalidWeekMetrics, in.MeanRIR)
	case in.TechniqueFlags < 0:
		return fmt.Errorf("%w: technique flags %d", types.ErrInvalidWeekMetrics, in.TechniqueFlags)
	case in.InitialLoad < 0 || in.AverageLoad < 0 || math.IsNaN(in.InitialLoad) || math.IsNaN(in.AverageLoad):
		return fmt.Errorf("%w: loads %v/%v", types.ErrInvalidWeekMetrics, in.InitialLoad, in.AverageLoad)
	}
	return nil
}

// RecordWeek stores the owner's current week and re-evaluates the block. The
// block becomes ready once it tracked its planned duration with every gate
// holding. A block that reached its maximum weeks stays active and rejects
// further weeks with ErrBlockFull.
func (t *Tracker) RecordWeek(ctx context.Context, in WeekInput) (*Status, error) {
	if in.OwnerID == "" {
		return nil, types.ErrOwnerEmpty
	}

	var st *Status
	err := t.store.Update(ctx, func(tx types.Tables) error {
		block, err := openBlock(ctx, tx, in.OwnerID)
		if err != nil {
			return err
		}
		st, err = t.recordWeek(ctx, tx, block, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.logWeek(in.OwnerID, st)
	return st, nil
}

// EvaluateWeek records the owner's current week from the workouts logged
// against it. Sessions completed counts the workouts; mean RIR and average
// load are taken over their sets. The first week's average load becomes the
// block's baseline.
func (t *Tracker) EvaluateWeek(ctx context.Context, ownerID string) (*Status, error) {
	if ownerID == "" {
		return nil, types.ErrOwnerEmpty
	}

	var st *Status
	err := t.store.Update(ctx, func(tx types.Tables) error {
		block, err := openBlock(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		workouts, err := tx.Adaptation().ListWorkouts(ctx, block.BlockID, block.CurrentWeek())
		if err != nil {
			return err
		}
		in := Measure(workouts)
		in.OwnerID = ownerID
		in.SessionsPlanned = PhaseFor(block).DaysPerWeek
		in.SessionsCompleted = min(in.SessionsCompleted, in.SessionsPlanned)
		if block.CurrentWeek() == 1 {
			in.InitialLoad = in.AverageLoad
		}
		st, err = t.recordWeek(ctx, tx, block, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.logWeek(ownerID, st)
	return st, nil
}

func (t *Tracker) recordWeek(ctx context.Context, tx types.Tables, block *types.AdaptationBlock, in WeekInput) (*Status, error) {
	if block.WeeksTracked >= block.MaxWeeks() {
		return nil, fmt.Errorf("%w: %d of %d weeks", types.ErrBlockFull, block.WeeksTracked, block.MaxWeeks())
	}
	if in.SessionsPlanned == 0 {
		in.SessionsPlanned = PhaseFor(block).DaysPerWeek
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	flags, err := tx.Adaptation().ListFlags(ctx, block.BlockID)
	if err != nil {
		return nil, err
	}
	week := block.CurrentWeek()
	flagged := in.TechniqueFlags
	for _, f := range flags {
		if f.WeekNumber == week {
			flagged++
		}
	}

	now := t.nowFunc().UTC()
	if err := tx.Adaptation().PutWeek(ctx, &types.AdaptationWeek{
		BlockID:           block.BlockID,
		WeekNumber:        week,
		SessionsPlanned:   in.SessionsPlanned,
		SessionsCompleted: in.SessionsCompleted,
		MeanRIR:           in.MeanRIR,
		TechniqueFlags:    flagged,
		InitialLoad:       in.InitialLoad,
		AverageLoad:       in.AverageLoad,
		RecordedAt:        now,
	}); err != nil {
		return nil, err
	}

	weeks, err := tx.Adaptation().ListWeeks(ctx, block.BlockID)
	if err != nil {
		return nil, err
	}
	block.WeeksTracked = week
	block.Criteria = Evaluate(weeks)
	block.Status = types.BlockActive
	if block.WeeksTracked >= block.DurationWeeks && Check(block.Criteria).All() {
		block.Status = types.BlockReady
	}
	block.UpdatedAt = now
	if err := tx.Adaptation().Put(ctx, block); err != nil {
		return nil, err
	}
	return newStatus(block, weeks, flags), nil
}

func (t *Tracker) logWeek(ownerID string, st *Status) {
	t.logger.Info("adaptation week recorded",
		slog.String("owner", ownerID),
		slog.String("block", st.Block.BlockID),
		slog.Int("week", st.Block.WeeksTracked),
		slog.Float64("adherence", st.Block.Criteria.AdherencePercent),
		slog.Float64("mean_rir", st.Block.Criteria.MeanRIR),
		slog.Float64("flag_rate", st.Block.Criteria.TechFlagRate),
		slog.Float64("load_progress", st.Block.Criteria.LoadProgressPercent),
		slog.String("status", string(st.Block.Status)),
	)
}

// WorkoutRequest is one finished adaptation session.
type WorkoutRequest struct {
	OwnerID string
	Sets    []types.AdaptationSet
}

// LogWorkout records a finished adaptation session against the block's
// current week. EvaluateWeek reads these workouts.
func (t *Tracker) LogWorkout(ctx context.Context, req WorkoutRequest) (*types.AdaptationWorkout, error) {
	if req.OwnerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	if len(req.Sets) == 0 {
		return nil, types.ErrInvalidWorkout
	}
	for _, set := range req.Sets {
		if err := set.Validate(); err != nil {
			return nil, err
		}
	}

	var w *types.AdaptationWorkout
	err := t.store.Update(ctx, func(tx types.Tables) error {
		block, err := openBlock(ctx, tx, req.OwnerID)
		if err != nil {
			return err
		}
		if block.WeeksTracked >= block.MaxWeeks() {
			return fmt.Errorf("%w: %d of %d weeks", types.ErrBlockFull, block.WeeksTracked, block.MaxWeeks())
		}
		w = &types.AdaptationWorkout{
			WorkoutID:   types.NewID(),
			BlockID:     block.BlockID,
			OwnerID:     req.OwnerID,
			WeekNumber:  block.CurrentWeek(),
			Sets:        append([]types.AdaptationSet(nil), req.Sets...),
			CompletedAt: t.nowFunc().UTC(),
		}
		return tx.Adaptation().AddWorkout(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("adaptation workout logged",
		slog.String("owner", req.OwnerID),
		slog.String("block", w.BlockID),
		slog.Int("week", w.WeekNumber),
		slog.Int("sets", len(w.Sets)),
	)
	return w, nil
}

// FlagRequest is a technique problem observed by the owner or a coach.
type FlagRequest struct {
	OwnerID     string
	ExerciseID  string
	Severity    types.Severity
	Description string
}

// FlagTechnique records a flag against the block's current week.
func (t *Tracker) FlagTechnique(ctx context.Context, req FlagRequest) (*types.TechniqueFlag, error) {
	if req.OwnerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	severity, err := types.ParseSeverity(string(req.Severity))
	if err != nil {
		return nil, err
	}

	var flag *types.TechniqueFlag
	err = t.store.Update(ctx, func(tx types.Tables) error {
		block, err := openBlock(ctx, tx, req.OwnerID)
		if err != nil {
			return err
		}
		if block.WeeksTracked >= block.MaxWeeks() {
			return fmt.Errorf("%w: %d of %d weeks", types.ErrBlockFull, block.WeeksTracked, block.MaxWeeks())
		}
		flag = &types.TechniqueFlag{
			FlagID:      types.NewID(),
			BlockID:     block.BlockID,
			OwnerID:     req.OwnerID,
			WeekNumber:  block.CurrentWeek(),
			ExerciseID:  req.ExerciseID,
			Severity:    severity,
			Description: req.Description,
			CreatedAt:   t.nowFunc().UTC(),
		}
		return tx.Adaptation().AddFlag(ctx, flag)
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("technique flagged",
		slog.String("owner", req.OwnerID),
		slog.String("block", flag.BlockID),
		slog.Int("week", flag.WeekNumber),
		slog.String("exercise", flag.ExerciseID),
		slog.String("severity", string(severity)),
	)
	return flag, nil
}

// Status returns the owner's most recent block.
func (t *Tracker) Status(ctx context.Context, ownerID string) (*Status, error) {
	var st *Status
	err := t.store.View(ctx, func(tx types.Tables) error {
		block, err := tx.Adaptation().Current(ctx, ownerID)
		if err != nil {
			return err
		}
		weeks, err := tx.Adaptation().ListWeeks(ctx, block.BlockID)
		if err != nil {
			return err
		}
		flags, err := tx.Adaptation().ListFlags(ctx, block.BlockID)
		if err != nil {
			return err
		}
		st = newStatus(block, weeks, flags)
		return nil
	})
	return st, err
}

// Transition moves the owner's ready block to transitioned. A block whose
// gates do not all hold returns ErrCriteriaNotMet.
func (t *Tracker) Transition(ctx context.Context, ownerID string) (*Status, error) {
	var st *Status
	err := t.store.Update(ctx, func(tx types.Tables) error {
		block, err := tx.Adaptation().Current(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := block.Transition(t.nowFunc().UTC()); err != nil {
			return err
		}
		if err := tx.Adaptation().Put(ctx, block); err != nil {
			return err
		}
		weeks, err := tx.Adaptation().ListWeeks(ctx, block.BlockID)
		if err != nil {
			return err
		}
		st = newStatus(block, weeks, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("adaptation block transitioned",
		slog.String("owner", ownerID),
		slog.String("block", st.Block.BlockID),
		slog.Int("weeks", st.Block.WeeksTracked),
	)
	return st, nil
}

// Gate returns ErrAdaptationPending when the owner holds a block that has
// not transitioned. Owners without a block pass.
func Gate(ctx context.Context, tx types.Tables, ownerID string) error {
	block, err := tx.Adaptation().Current(ctx, ownerID)
	switch {
	case errors.Is(err, types.ErrBlockNotFound):
		return nil
	case err != nil:
		return err
	case block.Status != types.BlockTransitioned:
		return fmt.Errorf("%w: block %s is %s", types.ErrAdaptationPending, block.BlockID, block.Status)
	}
	return nil
}

func openBlock(ctx context.Context, tx types.Tables, ownerID string) (*types.AdaptationBlock, error) {
	block, err := tx.Adaptation().Current(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if block.Status == types.BlockTransitioned {
		return nil, fmt.Errorf("%w: %s", types.ErrBlockTransitioned, block.BlockID)
	}
	return block, nil
}

func newStatus(block *types.AdaptationBlock, weeks []types.AdaptationWeek, flags []types.TechniqueFlag) *Status {
	return &Status{
		Block:  *block,
		Weeks:  weeks,
		Flags:  flags,
		Checks: Check(block.Criteria),
		Phase:  PhaseFor(block),
		Ready:  block.Status == types.BlockReady,
		Full:   block.WeeksTracked >= block.MaxWeeks(),
	}
}
