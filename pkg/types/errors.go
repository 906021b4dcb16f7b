package types

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the engine wraps exactly one of
// these so callers can branch with errors.Is.
var (
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrState                 = errors.New("illegal state")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Validation errors.
var (
	ErrInvalidLevel          = fmt.Errorf("%w: unknown training level", ErrValidation)
	ErrInvalidSex            = fmt.Errorf("%w: unknown sex", ErrValidation)
	ErrInvalidCycleDay       = fmt.Errorf("%w: cycle day out of range", ErrValidation)
	ErrInvalidMicrocycle     = fmt.Errorf("%w: microcycle out of range", ErrValidation)
	ErrInvalidMicrocycles    = fmt.Errorf("%w: total microcycles out of range", ErrValidation)
	ErrInvalidExerciseType   = fmt.Errorf("%w: unknown exercise type", ErrValidation)
	ErrInvalidSetInput       = fmt.Errorf("%w: set values out of range", ErrValidation)
	ErrInvalidStartDate      = fmt.Errorf("%w: unparseable start date", ErrValidation)
	ErrInvalidSessionCount   = fmt.Errorf("%w: sessions needed must be positive", ErrValidation)
	ErrInvalidBlockType      = fmt.Errorf("%w: unknown adaptation block type", ErrValidation)
	ErrInvalidBlockDuration  = fmt.Errorf("%w: adaptation block duration out of range", ErrValidation)
	ErrInvalidWeekMetrics    = fmt.Errorf("%w: adaptation week metrics out of range", ErrValidation)
	ErrInvalidSeverity       = fmt.Errorf("%w: unknown technique flag severity", ErrValidation)
	ErrInvalidExerciseStatus = fmt.Errorf("%w: exercise status must be terminal", ErrValidation)
	ErrOwnerEmpty            = fmt.Errorf("%w: owner must not be empty", ErrValidation)
	ErrInvalidWorkout        = fmt.Errorf("%w: adaptation workout needs at least one set", ErrValidation)
	ErrInvalidWarmup         = fmt.Errorf("%w: warm-up seconds must not be negative", ErrValidation)
)

// Not-found errors.
var (
	ErrPlanNotFound        = fmt.Errorf("%w: plan", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("%w: session", ErrNotFound)
	ErrExerciseNotFound    = fmt.Errorf("%w: exercise", ErrNotFound)
	ErrBlockNotFound       = fmt.Errorf("%w: adaptation block", ErrNotFound)
	ErrCycleStateNotFound  = fmt.Errorf("%w: cycle state", ErrNotFound)
	ErrProgressionNotFound = fmt.Errorf("%w: progression record", ErrNotFound)
)

// Conflict errors.
var (
	ErrSessionAlreadyActive = fmt.Errorf("%w: a session is already in progress", ErrConflict)
	ErrPlanTerminal         = fmt.Errorf("%w: plan is already cancelled or completed", ErrConflict)
	ErrPlanNotDraft         = fmt.Errorf("%w: plan is not a draft", ErrConflict)
	ErrBlockExists          = fmt.Errorf("%w: owner already has an adaptation block", ErrConflict)
	ErrDuplicateSet         = fmt.Errorf("%w: set number already logged", ErrConflict)
)

// State errors.
var (
	ErrInvalidTransition = fmt.Errorf("%w: transition not allowed", ErrState)
	ErrSessionFinished   = fmt.Errorf("%w: session already finished", ErrState)
	ErrSessionNotActive  = fmt.Errorf("%w: session is not in progress", ErrState)
	ErrPlanNotActive     = fmt.Errorf("%w: plan is not active", ErrState)
	ErrNoExercises       = fmt.Errorf("%w: session has no exercises", ErrState)
	ErrCriteriaNotMet    = fmt.Errorf("%w: adaptation criteria not met", ErrState)
	ErrBlockFull         = fmt.Errorf("%w: adaptation block reached its maximum weeks", ErrState)
	ErrBlockTransitioned = fmt.Errorf("%w: adaptation block already transitioned", ErrState)
	ErrAdaptationPending = fmt.Errorf("%w: adaptation block has not transitioned", ErrState)
	ErrCalendarExhausted = fmt.Errorf("%w: calendar iteration limit reached", ErrState)
	ErrStoreDetached     = fmt.Errorf("%w: store is not attached", ErrState)
	ErrStoreAttached     = fmt.Errorf("%w: store is already attached", ErrState)
)

// ActiveSessionError reports a start request that collides with a session
// already in progress. SessionID identifies the existing session.
type ActiveSessionError struct {
	SessionID string
}

func (e *ActiveSessionError) Error() string {
	return fmt.Sprintf("%v (session %s)", ErrSessionAlreadyActive, e.SessionID)
}

func (e *ActiveSessionError) Unwrap() error {
	return ErrSessionAlreadyActive
}
