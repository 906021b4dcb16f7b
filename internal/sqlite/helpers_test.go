package sqlite

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

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

// newTestBackend attaches a backend in a temp dir and detaches it on cleanup.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	b := NewBackend(testLogger(t))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testPlan(id, owner string) *types.TrainingPlan {
	return &types.TrainingPlan{
		PlanID:           id,
		OwnerID:          owner,
		Level:            types.LevelIntermediate,
		PriorityMuscles:  []string{"chest"},
		CycleLength:      types.CycleLength,
		TotalMicrocycles: 2,
		Status:           types.PlanDraft,
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
	}
}

func testSession(id, planID, owner string, micro, day int) *types.ScheduledSession {
	return &types.ScheduledSession{
		SessionID:       id,
		PlanID:          planID,
		OwnerID:         owner,
		MicrocycleIndex: micro,
		CycleDay:        day,
		SessionNumber:   micro*types.CycleLength + day,
		SessionName:     "Push",
		Status:          types.SessionPending,
		CreatedAt:       testNow,
	}
}
