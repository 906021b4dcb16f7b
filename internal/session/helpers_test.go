package session

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cyclecoach/internal/cleanup"
	"github.com/mesh-intelligence/cyclecoach/internal/cycle"
	"github.com/mesh-intelligence/cyclecoach/internal/progression"
	"github.com/mesh-intelligence/cyclecoach/internal/sqlite"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(&testLogWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// MockSubstituter is a mock type for the Substituter interface
type MockSubstituter struct {
	mock.Mock
}

func (m *MockSubstituter) Substitute(ctx context.Context, owner cycle.Owner, cycleDay int) (cycle.Blueprint, error) {
	args := m.Called(ctx, owner, cycleDay)
	return args.Get(0).(cycle.Blueprint), args.Error(1)
}

// MockPrechecker is a mock type for the Prechecker interface
type MockPrechecker struct {
	mock.Mock
}

func (m *MockPrechecker) PreSession(ctx context.Context, ownerID string) (*cleanup.Report, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cleanup.Report), args.Error(1)
}

var testNow = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

const owner = "alice"

type fixture struct {
	store *sqlite.Backend
	svc   *Service
	plan  *types.TrainingPlan
	subst *MockSubstituter
	pre   *MockPrechecker
}

// newFixture stores an active plan of the given microcycles. Every session
// holds a bench press and a cable fly. Slots listed in skip are left out of
// the schedule.
func newFixture(t *testing.T, microcycles int, skip ...[2]int) *fixture {
	t.Helper()
	return newPlanFixture(t, false, microcycles, skip...)
}

// newPlanFixture is newFixture for a plan that may open with a calibration
// week. The calibration microcycle itself is not scheduled.
func newPlanFixture(t *testing.T, calibration bool, microcycles int, skip ...[2]int) *fixture {
	t.Helper()

	store := sqlite.NewBackend(testLogger(t))
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })

	plan := &types.TrainingPlan{
		PlanID: "plan-1", OwnerID: owner, Level: types.LevelIntermediate,
		CycleLength: types.CycleLength, TotalMicrocycles: microcycles, HasCalibrationWeek: calibration,
		Status: types.PlanActive, CreatedAt: testNow, UpdatedAt: testNow,
	}
	missing := map[[2]int]bool{}
	for _, s := range skip {
		missing[s] = true
	}

	ctx := context.Background()
	require.NoError(t, store.Update(ctx, func(tx types.Tables) error {
		if err := tx.Plans().Put(ctx, plan); err != nil {
			return err
		}
		if err := tx.Cycles().Put(ctx, &types.CycleState{PlanID: plan.PlanID, OwnerID: owner, UpdatedAt: testNow}); err != nil {
			return err
		}
		for m := 1; m <= microcycles; m++ {
			for d := 1; d <= types.CycleLength; d++ {
				if missing[[2]int{m, d}] {
					continue
				}
				id := sessionID(m, d)
				if err := tx.Sessions().Put(ctx, &types.ScheduledSession{
					SessionID: id, PlanID: plan.PlanID, OwnerID: owner,
					MicrocycleIndex: m, CycleDay: d, SessionNumber: (m-1)*types.CycleLength + d,
					SessionName: fmt.Sprintf("Day %d", d), Status: types.SessionPending, CreatedAt: testNow,
				}); err != nil {
					return err
				}
				for i, ex := range []struct {
					id string
					t  types.ExerciseType
				}{{"bench", types.ExerciseMulti}, {"fly", types.ExerciseAnalytic}} {
					if err := tx.Assignments().Put(ctx, &types.ExerciseAssignment{
						AssignmentID: fmt.Sprintf("%s-%s", id, ex.id), SessionID: id, Order: i + 1,
						ExerciseID: ex.id, ExerciseName: ex.id, Category: "chest", Type: ex.t,
						TargetSets: 4, RestSeconds: 90, IntensityPercent: 80, Status: types.SessionPending,
					}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}))

	engine := progression.NewEngine(progression.DefaultSettings(), testLogger(t))
	subst := &MockSubstituter{}
	pre := &MockPrechecker{}
	pre.On("PreSession", mock.Anything, mock.Anything).Return(&cleanup.Report{}, nil).Maybe()

	svc := NewService(store, engine, subst, pre, testLogger(t))
	svc.nowFunc = func() time.Time { return testNow }
	return &fixture{store: store, svc: svc, plan: plan, subst: subst, pre: pre}
}

func sessionID(m, d int) string {
	return fmt.Sprintf("s-%d-%d", m, d)
}

func (f *fixture) start(t *testing.T, m, d int) *State {
	t.Helper()
	st, err := f.svc.Start(context.Background(), StartRequest{OwnerID: owner, PlanID: f.plan.PlanID, Microcycle: m, CycleDay: d})
	require.NoError(t, err)
	return st
}

func (f *fixture) logSet(t *testing.T, sessionID, exerciseID string, n, rir int) {
	t.Helper()
	_, err := f.svc.LogSet(context.Background(), LogSetRequest{
		OwnerID: owner, SessionID: sessionID, ExerciseID: exerciseID,
		SetNumber: n, Weight: 60, Reps: 10, RIR: rir,
	})
	require.NoError(t, err)
}

func (f *fixture) get(t *testing.T, sessionID string) *State {
	t.Helper()
	st, err := f.svc.Get(context.Background(), owner, sessionID)
	require.NoError(t, err)
	return st
}
