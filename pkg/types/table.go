package types

import (
	"context"
	"time"
)

// PlanTable stores training plans.
type PlanTable interface {
	// Put inserts or updates a plan.
	Put(ctx context.Context, p *TrainingPlan) error
	// Get returns ErrPlanNotFound when no plan has the ID.
	Get(ctx context.Context, planID string) (*TrainingPlan, error)
	// ListByOwner returns the owner's plans, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]TrainingPlan, error)
}

// CycleTable stores the per-plan cycle state and which microcycles have
// already been counted toward progression.
type CycleTable interface {
	Put(ctx context.Context, c *CycleState) error
	// Get returns ErrCycleStateNotFound when the plan has no state.
	Get(ctx context.Context, planID string) (*CycleState, error)
	// MarkMicrocycle records that a microcycle was evaluated. It reports
	// false when the microcycle was already marked.
	MarkMicrocycle(ctx context.Context, planID string, microcycle int, at time.Time) (bool, error)
}

// SessionTable stores scheduled sessions.
type SessionTable interface {
	Put(ctx context.Context, s *ScheduledSession) error
	// Get returns ErrSessionNotFound when no session has the ID.
	Get(ctx context.Context, sessionID string) (*ScheduledSession, error)
	// FindSlot returns the session scheduled for (plan, microcycle, cycleDay)
	// or ErrSessionNotFound.
	FindSlot(ctx context.Context, planID string, microcycle, cycleDay int) (*ScheduledSession, error)
	// ListByPlan returns the plan's sessions ordered by microcycle and day.
	ListByPlan(ctx context.Context, planID string) ([]ScheduledSession, error)
	// ListByMicrocycle returns one microcycle of a plan ordered by day.
	ListByMicrocycle(ctx context.Context, planID string, microcycle int) ([]ScheduledSession, error)
	// ListInProgress returns in_progress sessions of the owner, or of every
	// owner when ownerID is empty.
	ListInProgress(ctx context.Context, ownerID string) ([]ScheduledSession, error)
}

// AssignmentTable stores the exercise entries of sessions.
type AssignmentTable interface {
	Put(ctx context.Context, a *ExerciseAssignment) error
	// ListBySession returns the entries ordered by Order.
	ListBySession(ctx context.Context, sessionID string) ([]ExerciseAssignment, error)
	// Get returns ErrExerciseNotFound when the session has no entry for the
	// exercise.
	Get(ctx context.Context, sessionID, exerciseID string) (*ExerciseAssignment, error)
}

// SetLogTable stores logged sets. Sets are never updated.
type SetLogTable interface {
	// Append returns ErrDuplicateSet when the set number is already logged
	// for the exercise in the session.
	Append(ctx context.Context, s *SetLog) error
	// ListBySession returns the session's sets ordered by exercise and set
	// number.
	ListBySession(ctx context.Context, sessionID string) ([]SetLog, error)
}

// ProgressionTableAccess stores per-exercise progression records.
type ProgressionTableAccess interface {
	Put(ctx context.Context, r *ProgressionRecord) error
	// Get returns ErrProgressionNotFound when the exercise is not tracked.
	Get(ctx context.Context, ownerID, exerciseID string) (*ProgressionRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]ProgressionRecord, error)
}

// AdaptationTable stores adaptation blocks with their weeks, technique flags
// and logged workouts.
type AdaptationTable interface {
	Put(ctx context.Context, b *AdaptationBlock) error
	// Current returns the owner's most recent block or ErrBlockNotFound.
	Current(ctx context.Context, ownerID string) (*AdaptationBlock, error)
	PutWeek(ctx context.Context, w *AdaptationWeek) error
	ListWeeks(ctx context.Context, blockID string) ([]AdaptationWeek, error)
	AddFlag(ctx context.Context, f *TechniqueFlag) error
	ListFlags(ctx context.Context, blockID string) ([]TechniqueFlag, error)
	AddWorkout(ctx context.Context, w *AdaptationWorkout) error
	// ListWorkouts returns the workouts logged against one week of a block,
	// oldest first.
	ListWorkouts(ctx context.Context, blockID string, weekNumber int) ([]AdaptationWorkout, error)
}
