package adaptation

import (
	"log/slog"
	"testing"
	"time"

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

var testNow = time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *sqlite.Backend) {
	t.Helper()

	store := sqlite.NewBackend(testLogger(t))
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })

	tr := NewTracker(store, testLogger(t))
	tr.nowFunc = func() time.Time { return testNow }
	return tr, store
}
