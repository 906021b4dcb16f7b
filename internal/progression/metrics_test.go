package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func TestSummarize(t *testing.T) {
	sets := []types.SetLog{
		{ExerciseID: "squat", Weight: 40, Reps: 10, RIR: 5, IsWarmup: true},
		{ExerciseID: "squat", Weight: 100, Reps: 5, RIR: 3},
		{ExerciseID: "squat", Weight: 105, Reps: 5, RIR: 1},
		{ExerciseID: "curl", Weight: 12, Reps: 12, RIR: 5},
	}
	for i := range sets {
		sets[i].Derive()
	}

	got := Summarize(sets)
	require.Len(t, got, 2)

	curl, squat := got[0], got[1]
	assert.Equal(t, "curl", curl.ExerciseID)
	assert.Equal(t, 1, curl.WorkingSets)
	assert.Equal(t, 0, curl.EffectiveSets, "rir 5 is not effective")

	assert.Equal(t, "squat", squat.ExerciseID)
	assert.Equal(t, 2, squat.WorkingSets)
	assert.Equal(t, 2, squat.EffectiveSets)
	assert.InDelta(t, 1025.0, squat.VolumeLoad, 1e-9)
	assert.Equal(t, 105.0, squat.TopWeight)
	assert.InDelta(t, 105*(1+0.0333*5), squat.BestEstimated1RM, 1e-9)
	assert.InDelta(t, 2.0, squat.MeanRIR, 1e-9)
}

func TestSummarizeOnlyWarmups(t *testing.T) {
	assert.Empty(t, Summarize([]types.SetLog{{ExerciseID: "a", IsWarmup: true}}))
}
