package types

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus is the single lifecycle state of a scheduled session. The
// same vocabulary is used for the exercise entries inside a session.
type SessionStatus string

// Session states.
const (
	SessionPending    SessionStatus = "pending"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionSkipped    SessionStatus = "skipped"
	SessionCancelled  SessionStatus = "cancelled"
)

// ParseSessionStatus converts a string into a SessionStatus.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch st := SessionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case SessionPending, SessionInProgress, SessionCompleted, SessionSkipped, SessionCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// IsTerminal reports whether the status admits no further transition.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionSkipped || s == SessionCancelled
}

// sessionTransitions lists the legal successors of each non-terminal state.
// Terminal states have no entry.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionPending:    {SessionInProgress, SessionSkipped, SessionCancelled},
	SessionInProgress: {SessionCompleted, SessionSkipped, SessionCancelled},
}

// CanTransition reports whether from -> to is a legal session transition.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	for _, next := range sessionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSession validates from -> to. Finishing a session that is
// already completed returns ErrSessionFinished.
func TransitionSession(from, to SessionStatus) error {
	if from == SessionCompleted && to == SessionCompleted {
		return ErrSessionFinished
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: session %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ScheduledSession is one (plan, microcycle, cycleDay) slot of a plan.
type ScheduledSession struct {
	SessionID        string        `json:"session_id"`
	PlanID           string        `json:"plan_id"`
	OwnerID          string        `json:"owner_id"`
	MicrocycleIndex  int           `json:"microcycle_index"`
	CycleDay         int           `json:"cycle_day"`
	SessionNumber    int           `json:"session_number"`
	SessionName      string        `json:"session_name"`
	CalendarDate     *time.Time    `json:"calendar_date,omitempty"`
	WeekdayName      string        `json:"weekday_name"`
	Status           SessionStatus `json:"status"`
	Calibration      bool          `json:"calibration"`
	NoProgression    bool          `json:"no_progression"`
	ReducedIntensity bool          `json:"reduced_intensity"`
	Substitute       bool          `json:"substitute"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	LastActivityAt   *time.Time    `json:"last_activity_at,omitempty"`
	WarmupSeconds    int           `json:"warmup_seconds"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Start moves a pending session to in_progress.
func (s *ScheduledSession) Start(now time.Time) error {
	if err := TransitionSession(s.Status, SessionInProgress); err != nil {
		return err
	}
	s.Status = SessionInProgress
	s.StartedAt = &now
	s.LastActivityAt = &now
	return nil
}

// Finish moves an in_progress session to completed.
func (s *ScheduledSession) Finish(now time.Time) error {
	return s.settle(SessionCompleted, now)
}

// Skip moves a pending or in_progress session to skipped.
func (s *ScheduledSession) Skip(now time.Time) error {
	return s.settle(SessionSkipped, now)
}

// Cancel moves any non-terminal session to cancelled.
func (s *ScheduledSession) Cancel(now time.Time) error {
	return s.settle(SessionCancelled, now)
}

// Touch records write activity on an in_progress session.
func (s *ScheduledSession) Touch(now time.Time) {
	s.LastActivityAt = &now
}

// LastActivity returns the most recent write time known for the session.
func (s *ScheduledSession) LastActivity() time.Time {
	switch {
	case s.LastActivityAt != nil:
		return *s.LastActivityAt
	case s.StartedAt != nil:
		return *s.StartedAt
	default:
		return s.CreatedAt
	}
}

func (s *ScheduledSession) settle(to SessionStatus, now time.Time) error {
	if err := TransitionSession(s.Status, to); err != nil {
		return err
	}
	s.Status = to
	s.LastActivityAt = &now
	if to == SessionCompleted {
		s.CompletedAt = &now
	}
	return nil
}
