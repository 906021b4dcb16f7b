package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// harness runs coach commands against temporary config and data dirs.
type harness struct {
	configDir string
	dataDir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("CYCLECOACH_OWNER", "")
	return &harness{configDir: t.TempDir(), dataDir: t.TempDir()}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir, "--owner", "owner-1"}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := h.run(t, append(args, "--json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", types.ErrInvalidCycleDay, exitUserError},
		{"not found", fmt.Errorf("loading: %w", types.ErrPlanNotFound), exitUserError},
		{"conflict", &types.ActiveSessionError{SessionID: "s"}, exitUserError},
		{"state", types.ErrState, exitUserError},
		{"dependency", types.ErrDependencyUnavailable, exitSysError},
		{"other", errors.New("disk full"), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestPrint(t *testing.T) {
	v := struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}{"squat", 3}

	t.Run("yaml uses json names", func(t *testing.T) {
		var buf bytes.Buffer
		a := &app{stdout: &buf}
		require.NoError(t, a.print(v))
		assert.Equal(t, "count: 3\nname: squat\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		a := &app{stdout: &buf, flags: rootFlags{jsonMode: true}}
		require.NoError(t, a.print(v))
		assert.JSONEq(t, `{"name":"squat","count":3}`, buf.String())
		a.printf("hidden\n")
		assert.NotContains(t, buf.String(), "hidden")
	})
}

func TestInit_WritesConfigOnce(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+filepath.Join(h.configDir, "config.yaml"))
	assert.Contains(t, out, "storage ready at "+h.dataDir)

	data, err := os.ReadFile(filepath.Join(h.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "@every 1h")
	assert.Contains(t, string(data), "owner: owner-1")

	out, err = h.run(t, "init")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrote ")
}

func TestOwnerRequired(t *testing.T) {
	h := newHarness(t)
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir, "plan", "list"})

	err := root.Execute()
	require.ErrorIs(t, err, types.ErrOwnerEmpty)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestPlanAndSessionFlow(t *testing.T) {
	h := newHarness(t)

	var generated struct {
		Plan     types.TrainingPlan       `json:"plan"`
		Sessions []types.ScheduledSession `json:"sessions"`
	}
	h.runJSON(t, &generated, "plan", "generate", "--level", "beginner", "--microcycles", "2", "--seed", "7")
	assert.Equal(t, types.PlanDraft, generated.Plan.Status)
	assert.True(t, generated.Plan.HasCalibrationWeek)
	assert.Len(t, generated.Sessions, 15)

	planID := generated.Plan.PlanID

	_, err := h.run(t, "session", "start", planID, "0", "1")
	require.ErrorIs(t, err, types.ErrState, "draft plans cannot be trained")

	var confirmed types.TrainingPlan
	h.runJSON(t, &confirmed, "plan", "confirm", planID)
	assert.Equal(t, types.PlanActive, confirmed.Status)

	var started struct {
		Session   types.ScheduledSession     `json:"session"`
		Exercises []types.ExerciseAssignment `json:"exercises"`
	}
	h.runJSON(t, &started, "session", "start", planID, "0", "1")
	assert.Equal(t, types.SessionInProgress, started.Session.Status)
	require.NotEmpty(t, started.Exercises)

	_, err = h.run(t, "session", "start", planID, "0", "2")
	var active *types.ActiveSessionError
	require.ErrorAs(t, err, &active)
	assert.Equal(t, started.Session.SessionID, active.SessionID)

	var set types.SetLog
	h.runJSON(t, &set, "session", "log", started.Session.SessionID, started.Exercises[0].ExerciseID,
		"--weight", "40", "--reps", "10", "--rir", "2")
	assert.Equal(t, 10, set.Reps)

	var warmed struct {
		Session types.ScheduledSession `json:"session"`
	}
	h.runJSON(t, &warmed, "session", "warmup", started.Session.SessionID, "300")
	assert.Equal(t, 300, warmed.Session.WarmupSeconds)

	var shown struct {
		Summary []struct {
			ExerciseID  string `json:"exercise_id"`
			WorkingSets int    `json:"working_sets"`
		} `json:"summary"`
	}
	h.runJSON(t, &shown, "session", "show", started.Session.SessionID)
	require.Len(t, shown.Summary, 1)
	assert.Equal(t, started.Exercises[0].ExerciseID, shown.Summary[0].ExerciseID)
	assert.Equal(t, 1, shown.Summary[0].WorkingSets)

	var finished struct {
		Session types.ScheduledSession `json:"session"`
	}
	h.runJSON(t, &finished, "session", "finish", started.Session.SessionID)
	assert.Equal(t, types.SessionCompleted, finished.Session.Status)

	_, err = h.run(t, "session", "start", planID, "x", "1")
	require.ErrorIs(t, err, types.ErrValidation)

	exportDir := filepath.Join(t.TempDir(), "export")
	_, err = h.run(t, "export", exportDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(exportDir, "plans.jsonl"))
}

func TestAdaptationBlocksGeneration(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "adaptation", "create", "--type", "full_body", "--weeks", "1")
	require.NoError(t, err)

	_, err = h.run(t, "plan", "generate", "--level", "beginner")
	require.ErrorIs(t, err, types.ErrAdaptationPending)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestAdaptationWorkoutAndEvaluate(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "adaptation", "create", "--type", "half_body")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		var w types.AdaptationWorkout
		h.runJSON(t, &w, "adaptation", "workout", "--set", "goblet_squat:20:12:3", "--set", "db_press:14:12:2")
		assert.Equal(t, 1, w.WeekNumber)
		require.Len(t, w.Sets, 2)
	}

	_, err = h.run(t, "adaptation", "workout", "--set", "goblet_squat:twenty:12:3")
	require.ErrorIs(t, err, types.ErrValidation)

	var st struct {
		Weeks []types.AdaptationWeek `json:"weeks"`
	}
	h.runJSON(t, &st, "adaptation", "evaluate")
	require.Len(t, st.Weeks, 1)
	assert.Equal(t, 4, st.Weeks[0].SessionsCompleted)
	assert.Equal(t, 5, st.Weeks[0].SessionsPlanned)
	assert.InDelta(t, 2.5, st.Weeks[0].MeanRIR, 1e-9)
	assert.InDelta(t, 17.0, st.Weeks[0].AverageLoad, 1e-9)
	assert.InDelta(t, 17.0, st.Weeks[0].InitialLoad, 1e-9)
}

func TestCatalogList(t *testing.T) {
	h := newHarness(t)

	var exercises []types.Exercise
	h.runJSON(t, &exercises, "catalog", "list", "--level", "beginner", "--type", "multi")
	require.NotEmpty(t, exercises)
	for _, e := range exercises {
		assert.Equal(t, types.ExerciseMulti, e.Type)
	}
}
