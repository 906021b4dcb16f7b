// Package session drives the lifecycle of scheduled sessions and their
// exercise entries: start, set logging, exercise status, finish, skip and
// cancel. Every terminal transition feeds the progression engine and may
// complete the plan, all inside the same unit of work.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/cyclecoach/internal/cleanup"
	"github.com/mesh-intelligence/cyclecoach/internal/cycle"
	"github.com/mesh-intelligence/cyclecoach/internal/progression"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Substituter builds replacement content when a scheduled slot is missing.
type Substituter interface {
	Substitute(ctx context.Context, owner cycle.Owner, cycleDay int) (cycle.Blueprint, error)
}

// Prechecker reconciles an owner's sessions before a new one starts.
type Prechecker interface {
	PreSession(ctx context.Context, ownerID string) (*cleanup.Report, error)
}

// State is a session with its entries after an operation.
type State struct {
	Session       types.ScheduledSession        `json:"session"`
	Exercises     []types.ExerciseAssignment    `json:"exercises"`
	Sets          []types.SetLog                `json:"sets,omitempty"`
	Summary       []progression.ExerciseSummary `json:"summary,omitempty"`
	Progression   *progression.Result           `json:"progression,omitempty"`
	PlanCompleted bool                          `json:"plan_completed,omitempty"`
	Cleanup       *cleanup.Report               `json:"cleanup,omitempty"`
}

// Service is the session state machine.
type Service struct {
	store    types.Store
	engine   *progression.Engine
	subst    Substituter
	precheck Prechecker
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewService creates a Service. subst and precheck may be nil; without a
// substituter a missing slot with no nearby template fails with
// ErrDependencyUnavailable. A nil logger uses slog.Default().
func NewService(store types.Store, engine *progression.Engine, subst Substituter, precheck Prechecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		engine:   engine,
		subst:    subst,
		precheck: precheck,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// StartRequest identifies the slot to start.
type StartRequest struct {
	OwnerID    string
	PlanID     string
	Microcycle int
	CycleDay   int
}

// Start moves the slot's session to in_progress. The owner's stale sessions
// are reconciled first. Any other session of the owner still in progress
// rejects the start with an *types.ActiveSessionError naming it. A slot with
// no scheduled session gets a substitute.
func (s *Service) Start(ctx context.Context, req StartRequest) (*State, error) {
	if req.OwnerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	report := s.runPrecheck(ctx, req.OwnerID)

	var st *State
	err := s.store.Update(ctx, func(tx types.Tables) error {
		plan, err := loadPlan(ctx, tx, req.OwnerID, req.PlanID)
		if err != nil {
			return err
		}
		if plan.Status != types.PlanActive {
			return fmt.Errorf("%w: plan %s is %s", types.ErrPlanNotActive, plan.PlanID, plan.Status)
		}
		if err := plan.CheckSlot(req.Microcycle, req.CycleDay); err != nil {
			return err
		}

		active, err := tx.Sessions().ListInProgress(ctx, req.OwnerID)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return &types.ActiveSessionError{SessionID: active[0].SessionID}
		}

		now := s.nowFunc().UTC()
		sess, err := tx.Sessions().FindSlot(ctx, plan.PlanID, req.Microcycle, req.CycleDay)
		var entries []types.ExerciseAssignment
		switch {
		case errors.Is(err, types.ErrSessionNotFound):
			sess, entries, err = s.substitute(ctx, tx, plan, req.Microcycle, req.CycleDay, now)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if entries, err = tx.Assignments().ListBySession(ctx, sess.SessionID); err != nil {
				return err
			}
		}

		if err := sess.Start(now); err != nil {
			return err
		}
		if err := tx.Sessions().Put(ctx, sess); err != nil {
			return err
		}
		st = &State{Session: *sess, Exercises: entries}
		return nil
	})
	if err != nil {
		return nil, err
	}
	st.Cleanup = report

	s.logger.Info("session started",
		slog.String("owner", req.OwnerID),
		slog.String("session", st.Session.SessionID),
		slog.Int("microcycle", st.Session.MicrocycleIndex),
		slog.Int("cycle_day", st.Session.CycleDay),
		slog.Bool("substitute", st.Session.Substitute),
	)
	return st, nil
}

func (s *Service) runPrecheck(ctx context.Context, ownerID string) *cleanup.Report {
	if s.precheck == nil {
		return nil
	}
	report, err := s.precheck.PreSession(ctx, ownerID)
	if err != nil {
		s.logger.Warn("pre-session cleanup failed",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
		)
	}
	return report
}

// LogSetRequest is one set reported by the owner.
type LogSetRequest struct {
	OwnerID    string
	SessionID  string
	ExerciseID string
	SetNumber  int
	Weight     float64
	Reps       int
	RIR        int
	IsWarmup   bool
}

// LogSet appends a set to an in-progress session. The exercise entry moves
// to in_progress and working sets count toward its completed series.
func (s *Service) LogSet(ctx context.Context, req LogSetRequest) (*types.SetLog, error) {
	set := &types.SetLog{
		OwnerID:    req.OwnerID,
		SessionID:  req.SessionID,
		ExerciseID: req.ExerciseID,
		SetNumber:  req.SetNumber,
		Weight:     req.Weight,
		Reps:       req.Reps,
		RIR:        req.RIR,
		IsWarmup:   req.IsWarmup,
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	set.Derive()

	err := s.store.Update(ctx, func(tx types.Tables) error {
		sess, err := loadSession(ctx, tx, req.OwnerID, req.SessionID)
		if err != nil {
			return err
		}
		if sess.Status != types.SessionInProgress {
			return fmt.Errorf("%w: session %s is %s", types.ErrSessionNotActive, sess.SessionID, sess.Status)
		}
		entry, err := tx.Assignments().Get(ctx, sess.SessionID, req.ExerciseID)
		if err != nil {
			return err
		}
		if entry.Status.IsTerminal() {
			return fmt.Errorf("%w: exercise %s is %s", types.ErrInvalidTransition, entry.ExerciseID, entry.Status)
		}

		now := s.nowFunc().UTC()
		set.SetID = types.NewID()
		set.LoggedAt = now
		if err := tx.SetLogs().Append(ctx, set); err != nil {
			return err
		}

		entry.Begin()
		if !set.IsWarmup {
			entry.SeriesCompleted++
		}
		if err := tx.Assignments().Put(ctx, entry); err != nil {
			return err
		}
		sess.Touch(now)
		return tx.Sessions().Put(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// RecordWarmup stores the warm-up duration of an in-progress session.
// Recording again replaces the earlier value.
func (s *Service) RecordWarmup(ctx context.Context, ownerID, sessionID string, seconds int) (*State, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidWarmup, seconds)
	}

	var st *State
	err := s.store.Update(ctx, func(tx types.Tables) error {
		sess, err := loadSession(ctx, tx, ownerID, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != types.SessionInProgress {
			return fmt.Errorf("%w: session %s is %s", types.ErrSessionNotActive, sess.SessionID, sess.Status)
		}
		sess.WarmupSeconds = seconds
		sess.Touch(s.nowFunc().UTC())
		if err := tx.Sessions().Put(ctx, sess); err != nil {
			return err
		}
		entries, err := tx.Assignments().ListBySession(ctx, sess.SessionID)
		if err != nil {
			return err
		}
		st = &State{Session: *sess, Exercises: entries}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("warm-up recorded",
		slog.String("owner", ownerID),
		slog.String("session", sessionID),
		slog.Int("seconds", seconds),
	)
	return st, nil
}

// ExerciseStatusRequest settles one exercise entry.
type ExerciseStatusRequest struct {
	OwnerID    string
	SessionID  string
	ExerciseID string
	Status     types.SessionStatus
	Series     int
}

// SetExerciseStatus moves an entry to a terminal status. When every entry of
// the session is terminal the session completes.
func (s *Service) SetExerciseStatus(ctx context.Context, req ExerciseStatusRequest) (*State, error) {
	if !req.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidExerciseStatus, req.Status)
	}

	var st *State
	err := s.store.Update(ctx, func(tx types.Tables) error {
		sess, err := loadSession(ctx, tx, req.OwnerID, req.SessionID)
		if err != nil {
			return err
		}
		if sess.Status != types.SessionInProgress {
			return fmt.Errorf("%w: session %s is %s", types.ErrSessionNotActive, sess.SessionID, sess.Status)
		}
		entries, err := tx.Assignments().ListBySession(ctx, sess.SessionID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range entries {
			if entries[i].ExerciseID == req.ExerciseID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", types.ErrExerciseNotFound, req.ExerciseID)
		}
		if err := entries[idx].Settle(req.Status, req.Series); err != nil {
			return err
		}
		if err := tx.Assignments().Put(ctx, &entries[idx]); err != nil {
			return err
		}

		now := s.nowFunc().UTC()
		sess.Touch(now)
		st = &State{Exercises: entries}
		if allTerminal(entries) {
			if err := sess.Finish(now); err != nil {
				return err
			}
			if err := tx.Sessions().Put(ctx, sess); err != nil {
				return err
			}
			return s.afterTerminal(ctx, tx, sess, st)
		}
		st.Session = *sess
		return tx.Sessions().Put(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Finish completes an in-progress session. Started entries complete and
// untouched ones are skipped. Finishing a completed session returns
// ErrSessionFinished and changes nothing.
func (s *Service) Finish(ctx context.Context, ownerID, sessionID string) (*State, error) {
	return s.end(ctx, ownerID, sessionID, types.SessionCompleted)
}

// Skip marks a pending or in-progress session skipped.
func (s *Service) Skip(ctx context.Context, ownerID, sessionID string) (*State, error) {
	return s.end(ctx, ownerID, sessionID, types.SessionSkipped)
}

// Cancel cancels a non-terminal session.
func (s *Service) Cancel(ctx context.Context, ownerID, sessionID string) (*State, error) {
	return s.end(ctx, ownerID, sessionID, types.SessionCancelled)
}

func (s *Service) end(ctx context.Context, ownerID, sessionID string, to types.SessionStatus) (*State, error) {
	var st *State
	err := s.store.Update(ctx, func(tx types.Tables) error {
		sess, err := loadSession(ctx, tx, ownerID, sessionID)
		if err != nil {
			return err
		}
		if err := types.TransitionSession(sess.Status, to); err != nil {
			return err
		}
		entries, err := tx.Assignments().ListBySession(ctx, sess.SessionID)
		if err != nil {
			return err
		}
		if to == types.SessionCompleted && len(entries) == 0 {
			return fmt.Errorf("%w: %s", types.ErrNoExercises, sess.SessionID)
		}

		now := s.nowFunc().UTC()
		switch to {
		case types.SessionCompleted:
			err = sess.Finish(now)
		case types.SessionSkipped:
			err = sess.Skip(now)
		default:
			err = sess.Cancel(now)
		}
		if err != nil {
			return err
		}
		for i := range entries {
			if entries[i].Close(to) {
				if err := tx.Assignments().Put(ctx, &entries[i]); err != nil {
					return err
				}
			}
		}
		if err := tx.Sessions().Put(ctx, sess); err != nil {
			return err
		}
		sets, err := tx.SetLogs().ListBySession(ctx, sess.SessionID)
		if err != nil {
			return err
		}
		st = &State{Exercises: entries, Summary: progression.Summarize(sets)}
		return s.afterTerminal(ctx, tx, sess, st)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session ended",
		slog.String("owner", ownerID),
		slog.String("session", sessionID),
		slog.String("status", string(to)),
		slog.Bool("microcycle_advanced", st.Progression != nil),
		slog.Bool("plan_completed", st.PlanCompleted),
	)
	return st, nil
}

// OnTerminal is the follow-up for a session another component made terminal
// inside tx. It matches cleanup.TerminalHook.
func (s *Service) OnTerminal(ctx context.Context, tx types.Tables, sess *types.ScheduledSession) error {
	return s.afterTerminal(ctx, tx, sess, &State{})
}

// afterTerminal runs progression for the session's microcycle and completes
// the plan once all of its sessions are terminal.
func (s *Service) afterTerminal(ctx context.Context, tx types.Tables, sess *types.ScheduledSession, st *State) error {
	st.Session = *sess
	if s.engine != nil {
		res, err := s.engine.OnSessionTerminal(ctx, tx, sess)
		if err != nil {
			return err
		}
		st.Progression = res
	}

	plan, err := tx.Plans().Get(ctx, sess.PlanID)
	if err != nil {
		return err
	}
	if plan.Status != types.PlanActive {
		return nil
	}
	sessions, err := tx.Sessions().ListByPlan(ctx, plan.PlanID)
	if err != nil {
		return err
	}
	for _, ps := range sessions {
		if !ps.Status.IsTerminal() {
			return nil
		}
	}
	if err := plan.Complete(s.nowFunc().UTC()); err != nil {
		return err
	}
	st.PlanCompleted = true
	return tx.Plans().Put(ctx, plan)
}

// Get returns a session with its entries, logged sets and a per-exercise
// summary of the working sets.
func (s *Service) Get(ctx context.Context, ownerID, sessionID string) (*State, error) {
	var st *State
	err := s.store.View(ctx, func(tx types.Tables) error {
		sess, err := loadSession(ctx, tx, ownerID, sessionID)
		if err != nil {
			return err
		}
		entries, err := tx.Assignments().ListBySession(ctx, sess.SessionID)
		if err != nil {
			return err
		}
		sets, err := tx.SetLogs().ListBySession(ctx, sess.SessionID)
		if err != nil {
			return err
		}
		st = &State{Session: *sess, Exercises: entries, Sets: sets, Summary: progression.Summarize(sets)}
		return nil
	})
	return st, err
}

// List returns the sessions of one of the owner's plans in schedule order.
func (s *Service) List(ctx context.Context, ownerID, planID string) ([]types.ScheduledSession, error) {
	var out []types.ScheduledSession
	err := s.store.View(ctx, func(tx types.Tables) error {
		if _, err := loadPlan(ctx, tx, ownerID, planID); err != nil {
			return err
		}
		var err error
		out, err = tx.Sessions().ListByPlan(ctx, planID)
		return err
	})
	return out, err
}

func allTerminal(entries []types.ExerciseAssignment) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !e.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// loadPlan returns the plan when it belongs to the owner. Plans of other
// owners are reported as not found.
func loadPlan(ctx context.Context, tx types.Tables, ownerID, planID string) (*types.TrainingPlan, error) {
	plan, err := tx.Plans().Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s", types.ErrPlanNotFound, planID)
	}
	return plan, nil
}

func loadSession(ctx context.Context, tx types.Tables, ownerID, sessionID string) (*types.ScheduledSession, error) {
	sess, err := tx.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	return sess, nil
}
