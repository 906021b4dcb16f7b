package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

var now = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Backend {
	t.Helper()

	store := sqlite.NewBackend(testLogger(t))
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })
	return store
}

func newService(t *testing.T, store types.Store, hook TerminalHook) *Service {
	t.Helper()

	svc := NewService(store, DefaultSettings(), hook, testLogger(t))
	svc.nowFunc = func() time.Time { return now }
	return svc
}

// seed stores one plan per owner and one in-progress session per entry of
// idle, each last active idle ago. A negative duration marks the session as
// carrying a completion time.
func seed(t *testing.T, store types.Store, owner string, idle ...time.Duration) []string {
	t.Helper()
	ctx := context.Background()

	planID := "plan-" + owner
	var ids []string
	require.NoError(t, store.Update(ctx, func(tx types.Tables) error {
		if err := tx.Plans().Put(ctx, &types.TrainingPlan{
			PlanID: planID, OwnerID: owner, Level: types.LevelBeginner, CycleLength: types.CycleLength,
			TotalMicrocycles: 4, Status: types.PlanActive, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		for i, d := range idle {
			id := fmt.Sprintf("%s-s%d", owner, i+1)
			ids = append(ids, id)

			started := now.Add(-48 * time.Hour)
			last := now.Add(-d)
			s := &types.ScheduledSession{
				SessionID: id, PlanID: planID, OwnerID: owner, MicrocycleIndex: 1, CycleDay: i + 1,
				SessionNumber: i + 1, SessionName: "Day", Status: types.SessionInProgress,
				StartedAt: &started, LastActivityAt: &last, CreatedAt: started,
			}
			if d < 0 {
				done := now.Add(-30 * time.Minute)
				last = now.Add(-10 * time.Minute)
				s.CompletedAt = &done
			}
			if err := tx.Sessions().Put(ctx, s); err != nil {
				return err
			}
			for j, st := range []types.SessionStatus{types.SessionInProgress, types.SessionPending} {
				if err := tx.Assignments().Put(ctx, &types.ExerciseAssignment{
					AssignmentID: fmt.Sprintf("%s-a%d", id, j), SessionID: id, Order: j + 1,
					ExerciseID: fmt.Sprintf("ex-%d", j), ExerciseName: "Exercise", Category: "back",
					Type: types.ExerciseMulti, TargetSets: 3, RestSeconds: 90, IntensityPercent: 75,
					Status: st, SeriesCompleted: 1 - j,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	}))
	return ids
}

func session(t *testing.T, store types.Store, id string) (*types.ScheduledSession, []types.ExerciseAssignment) {
	t.Helper()
	ctx := context.Background()

	var (
		s       *types.ScheduledSession
		entries []types.ExerciseAssignment
	)
	require.NoError(t, store.View(ctx, func(tx types.Tables) error {
		var err error
		if s, err = tx.Sessions().Get(ctx, id); err != nil {
			return err
		}
		entries, err = tx.Assignments().ListBySession(ctx, id)
		return err
	}))
	return s, entries
}

func TestPreSession_CancelsStaleSessions(t *testing.T) {
	store := newStore(t)
	ids := seed(t, store, "alice", 2*time.Hour, 10*time.Minute)
	svc := newService(t, store, nil)

	report, err := svc.PreSession(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Cancelled)
	assert.Equal(t, 0, report.Completed)
	require.Len(t, report.Corrections, 1)
	assert.Equal(t, Correction{SessionID: ids[0], OwnerID: "alice", To: types.SessionCancelled, Reason: ReasonStale}, report.Corrections[0])

	stale, entries := session(t, store, ids[0])
	assert.Equal(t, types.SessionCancelled, stale.Status)
	assert.Nil(t, stale.CompletedAt)
	for _, e := range entries {
		assert.Equal(t, types.SessionCancelled, e.Status)
		assert.Zero(t, e.SeriesCompleted)
	}

	fresh, _ := session(t, store, ids[1])
	assert.Equal(t, types.SessionInProgress, fresh.Status)
}

func TestPreSession_FixesInconsistentSession(t *testing.T) {
	store := newStore(t)
	ids := seed(t, store, "alice", -1)
	svc := newService(t, store, nil)

	report, err := svc.PreSession(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, ReasonInconsistent, report.Corrections[0].Reason)

	s, entries := session(t, store, ids[0])
	assert.Equal(t, types.SessionCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	assert.True(t, s.CompletedAt.Equal(now.Add(-30*time.Minute)), "original completion time is kept")
	require.Len(t, entries, 2)
	assert.Equal(t, types.SessionCompleted, entries[0].Status)
	assert.Equal(t, 1, entries[0].SeriesCompleted)
	assert.Equal(t, types.SessionSkipped, entries[1].Status)
}

func TestPreSession_OnlyTouchesOwner(t *testing.T) {
	store := newStore(t)
	seed(t, store, "alice", 3*time.Hour)
	bob := seed(t, store, "bob", 3*time.Hour)
	svc := newService(t, store, nil)

	report, err := svc.PreSession(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cancelled)

	s, _ := session(t, store, bob[0])
	assert.Equal(t, types.SessionInProgress, s.Status)

	_, err = svc.PreSession(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrOwnerEmpty)
}

func TestSweep_UsesLongThresholdAcrossOwners(t *testing.T) {
	store := newStore(t)
	alice := seed(t, store, "alice", 2*time.Hour, 25*time.Hour)
	bob := seed(t, store, "bob", 30*time.Hour)
	svc := newService(t, store, nil)

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Cancelled)

	s, _ := session(t, store, alice[0])
	assert.Equal(t, types.SessionInProgress, s.Status, "two idle hours are below the sweep threshold")
	s, _ = session(t, store, alice[1])
	assert.Equal(t, types.SessionCancelled, s.Status)
	s, _ = session(t, store, bob[0])
	assert.Equal(t, types.SessionCancelled, s.Status)
}

func TestCleanup_SecondRunChangesNothing(t *testing.T) {
	store := newStore(t)
	seed(t, store, "alice", 2*time.Hour, -1, 5*time.Minute)
	seed(t, store, "bob", 48*time.Hour)
	svc := newService(t, store, nil)
	ctx := context.Background()

	first, err := svc.PreSession(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Changed())
	sweep, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sweep.Changed())

	second, err := svc.PreSession(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, second.Changed())
	again, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Changed())
}

func TestCleanup_RunsHookInSameUnitOfWork(t *testing.T) {
	store := newStore(t)
	ids := seed(t, store, "alice", 2*time.Hour)

	var seen []string
	hook := func(ctx context.Context, tx types.Tables, s *types.ScheduledSession) error {
		got, err := tx.Sessions().Get(ctx, s.SessionID)
		require.NoError(t, err)
		assert.Equal(t, types.SessionCancelled, got.Status, "hook sees the pending write")
		seen = append(seen, s.SessionID)
		return nil
	}
	svc := newService(t, store, hook)

	_, err := svc.PreSession(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, ids, seen)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	err := Settings{}.Validate()
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), "pre-session")
	assert.Contains(t, err.Error(), "sweep")
}
