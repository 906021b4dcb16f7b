// Package coach composes the training-cycle components into the operations
// callers use: plan generation and lifecycle, session execution, progression
// queries, adaptation blocks and cleanup.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/cyclecoach/internal/adaptation"
	"github.com/mesh-intelligence/cyclecoach/internal/cleanup"
	"github.com/mesh-intelligence/cyclecoach/internal/cycle"
	"github.com/mesh-intelligence/cyclecoach/internal/progression"
	"github.com/mesh-intelligence/cyclecoach/internal/session"
	"github.com/mesh-intelligence/cyclecoach/internal/sqlite"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Settings tunes the components.
type Settings struct {
	Cleanup     cleanup.Settings
	Progression progression.Settings
	// Seed drives exercise selection when a request carries none. Zero
	// derives a seed from the clock.
	Seed int64
}

// DefaultSettings returns the default thresholds, increments and a
// clock-derived seed.
func DefaultSettings() Settings {
	return Settings{
		Cleanup:     cleanup.DefaultSettings(),
		Progression: progression.DefaultSettings(),
	}
}

// Validate reports every invalid setting.
func (s Settings) Validate() error {
	return errors.Join(s.Cleanup.Validate(), s.Progression.Validate())
}

// Exporter writes an owner's data as JSONL files.
type Exporter interface {
	ExportOwner(ctx context.Context, ownerID, dir string) (*sqlite.ExportSummary, error)
}

// Coach is the caller-facing surface of the engine.
type Coach struct {
	store      types.Store
	repo       types.ExerciseRepository
	templates  *cycle.Templates
	settings   Settings
	engine     *progression.Engine
	sessions   *session.Service
	cleanup    *cleanup.Service
	adaptation *adaptation.Tracker
	logger     *slog.Logger
	nowFunc    func() time.Time
}

// New wires the components over an attached store and an exercise catalog.
// A nil logger uses slog.Default().
func New(store types.Store, repo types.ExerciseRepository, settings Settings, logger *slog.Logger) (*Coach, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	templates, err := cycle.DefaultTemplates()
	if err != nil {
		return nil, fmt.Errorf("loading level templates: %w", err)
	}

	c := &Coach{
		store:     store,
		repo:      repo,
		templates: templates,
		settings:  settings,
		logger:    logger,
		nowFunc:   time.Now,
	}
	c.engine = progression.NewEngine(settings.Progression, logger.With(slog.String("component", "progression")))
	c.cleanup = cleanup.NewService(store, settings.Cleanup, c.onTerminal, logger.With(slog.String("component", "cleanup")))

	var subst session.Substituter
	if repo != nil {
		subst = cycle.NewBuilder(repo, templates, nil, logger.With(slog.String("component", "builder")))
	}
	c.sessions = session.NewService(store, c.engine, subst, c.cleanup, logger.With(slog.String("component", "session")))
	c.adaptation = adaptation.NewTracker(store, logger.With(slog.String("component", "adaptation")))
	return c, nil
}

// Cleanup returns the cleanup service, for scheduling sweeps.
func (c *Coach) Cleanup() *cleanup.Service {
	return c.cleanup
}

// onTerminal lets cleanup corrections drive progression and plan
// completion like any other terminal transition.
func (c *Coach) onTerminal(ctx context.Context, tx types.Tables, s *types.ScheduledSession) error {
	return c.sessions.OnTerminal(ctx, tx, s)
}

// StartSession starts the session of a plan slot.
func (c *Coach) StartSession(ctx context.Context, req session.StartRequest) (*session.State, error) {
	return c.sessions.Start(ctx, req)
}

// LogSet records one set of an in-progress session.
func (c *Coach) LogSet(ctx context.Context, req session.LogSetRequest) (*types.SetLog, error) {
	return c.sessions.LogSet(ctx, req)
}

// RecordWarmup stores the warm-up duration of an in-progress session.
func (c *Coach) RecordWarmup(ctx context.Context, ownerID, sessionID string, seconds int) (*session.State, error) {
	return c.sessions.RecordWarmup(ctx, ownerID, sessionID, seconds)
}

// SetExerciseStatus settles one exercise of an in-progress session.
func (c *Coach) SetExerciseStatus(ctx context.Context, req session.ExerciseStatusRequest) (*session.State, error) {
	return c.sessions.SetExerciseStatus(ctx, req)
}

// FinishSession completes an in-progress session.
func (c *Coach) FinishSession(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return c.sessions.Finish(ctx, ownerID, sessionID)
}

// SkipSession skips a pending or in-progress session.
func (c *Coach) SkipSession(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return c.sessions.Skip(ctx, ownerID, sessionID)
}

// CancelSession cancels a non-terminal session.
func (c *Coach) CancelSession(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return c.sessions.Cancel(ctx, ownerID, sessionID)
}

// GetSession returns a session with its exercises, logged sets and
// per-exercise summary.
func (c *Coach) GetSession(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return c.sessions.Get(ctx, ownerID, sessionID)
}

// ListSessions returns the sessions of one of the owner's plans.
func (c *Coach) ListSessions(ctx context.Context, ownerID, planID string) ([]types.ScheduledSession, error) {
	return c.sessions.List(ctx, ownerID, planID)
}

// GetProgression returns the progression of one exercise. An exercise
// without a completed microcycle is reported untracked.
func (c *Coach) GetProgression(ctx context.Context, ownerID, exerciseID string) (types.ProgressionStatus, error) {
	var st types.ProgressionStatus
	if ownerID == "" {
		return st, types.ErrOwnerEmpty
	}
	err := c.store.View(ctx, func(tx types.Tables) error {
		var err error
		st, err = c.engine.Status(ctx, tx, ownerID, exerciseID)
		return err
	})
	return st, err
}

// ListProgression returns every progression record of the owner.
func (c *Coach) ListProgression(ctx context.Context, ownerID string) ([]types.ProgressionRecord, error) {
	if ownerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	var out []types.ProgressionRecord
	err := c.store.View(ctx, func(tx types.Tables) error {
		var err error
		out, err = tx.Progression().ListByOwner(ctx, ownerID)
		return err
	})
	return out, err
}

// CreateAdaptationBlock opens an adaptation block.
func (c *Coach) CreateAdaptationBlock(ctx context.Context, req adaptation.CreateRequest) (*adaptation.Status, error) {
	return c.adaptation.Create(ctx, req)
}

// RecordAdaptationWeek records the owner's current adaptation week.
func (c *Coach) RecordAdaptationWeek(ctx context.Context, in adaptation.WeekInput) (*adaptation.Status, error) {
	return c.adaptation.RecordWeek(ctx, in)
}

// LogAdaptationWorkout records a finished adaptation session against the
// current week.
func (c *Coach) LogAdaptationWorkout(ctx context.Context, req adaptation.WorkoutRequest) (*types.AdaptationWorkout, error) {
	return c.adaptation.LogWorkout(ctx, req)
}

// EvaluateAdaptationWeek records the current week from its logged workouts.
func (c *Coach) EvaluateAdaptationWeek(ctx context.Context, ownerID string) (*adaptation.Status, error) {
	return c.adaptation.EvaluateWeek(ctx, ownerID)
}

// FlagTechnique records a technique flag against the current week.
func (c *Coach) FlagTechnique(ctx context.Context, req adaptation.FlagRequest) (*types.TechniqueFlag, error) {
	return c.adaptation.FlagTechnique(ctx, req)
}

// GetAdaptationStatus returns the owner's most recent block.
func (c *Coach) GetAdaptationStatus(ctx context.Context, ownerID string) (*adaptation.Status, error) {
	return c.adaptation.Status(ctx, ownerID)
}

// TransitionAdaptationBlock releases the owner into the main cycle.
func (c *Coach) TransitionAdaptationBlock(ctx context.Context, ownerID string) (*adaptation.Status, error) {
	return c.adaptation.Transition(ctx, ownerID)
}

// RunCleanupSweep reconciles stale and inconsistent sessions of every owner.
func (c *Coach) RunCleanupSweep(ctx context.Context) (*cleanup.Report, error) {
	return c.cleanup.Sweep(ctx)
}

// ExportOwner writes the owner's plans, sessions, exercises, sets and
// progression as JSONL files under dir.
func (c *Coach) ExportOwner(ctx context.Context, ownerID, dir string) (*sqlite.ExportSummary, error) {
	exp, ok := c.store.(Exporter)
	if !ok {
		return nil, fmt.Errorf("%w: store does not support export", types.ErrDependencyUnavailable)
	}
	return exp.ExportOwner(ctx, ownerID, dir)
}
