package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func TestExportOwner(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Update(ctx, func(tx types.Tables) error {
		require.NoError(t, tx.Plans().Put(ctx, testPlan("p1", "alice")))
		require.NoError(t, tx.Plans().Put(ctx, testPlan("p2", "bob")))
		require.NoError(t, tx.Sessions().Put(ctx, testSession("s1", "p1", "alice", 1, 1)))
		require.NoError(t, tx.Sessions().Put(ctx, testSession("s2", "p1", "alice", 1, 2)))
		require.NoError(t, tx.Sessions().Put(ctx, testSession("s3", "p2", "bob", 1, 1)))
		set := &types.SetLog{SetID: "l1", SessionID: "s1", OwnerID: "alice", ExerciseID: "bench",
			SetNumber: 1, Weight: 60, Reps: 10, RIR: 3, LoggedAt: testNow}
		set.Derive()
		return tx.SetLogs().Append(ctx, set)
	}))

	dir := filepath.Join(t.TempDir(), "export")
	summary, err := b.ExportOwner(ctx, "alice", dir)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Counts[ExportPlans])
	assert.Equal(t, 2, summary.Counts[ExportSessions])
	assert.Equal(t, 0, summary.Counts[ExportAssignments])
	assert.Equal(t, 1, summary.Counts[ExportSetLogs])

	records, err := readJSONL(filepath.Join(dir, ExportSessions))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = b.ExportOwner(ctx, "", dir)
	assert.ErrorIs(t, err, types.ErrOwnerEmpty)
}

func TestWriteJSONLReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	require.NoError(t, writeJSONL(path, marshalOrFail(t, []int{1, 2, 3})))
	require.NoError(t, writeJSONL(path, marshalOrFail(t, []int{4})))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, "4", string(records[0]))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".jsonl-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files are cleaned up")
}

func marshalOrFail[T any](t *testing.T, items []T) []json.RawMessage {
	t.Helper()
	recs, err := marshalAll(items)
	require.NoError(t, err)
	return recs
}
