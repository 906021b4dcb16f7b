package progression

import (
	"sort"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// ExerciseSummary aggregates the working sets of one exercise.
type ExerciseSummary struct {
	ExerciseID       string  `json:"exercise_id"`
	WorkingSets      int     `json:"working_sets"`
	EffectiveSets    int     `json:"effective_sets"`
	VolumeLoad       float64 `json:"volume_load"`
	TopWeight        float64 `json:"top_weight"`
	BestEstimated1RM float64 `json:"best_estimated_1rm"`
	MeanRIR          float64 `json:"mean_rir"`
}

// Summarize groups sets by exercise. Warmup sets are ignored. The result is
// sorted by exercise ID.
func Summarize(sets []types.SetLog) []ExerciseSummary {
	byID := map[string]*ExerciseSummary{}
	rirSum := map[string]int{}
	for _, s := range sets {
		if s.IsWarmup {
			continue
		}
		sum, ok := byID[s.ExerciseID]
		if !ok {
			sum = &ExerciseSummary{ExerciseID: s.ExerciseID}
			byID[s.ExerciseID] = sum
		}
		sum.WorkingSets++
		if s.IsEffective {
			sum.EffectiveSets++
		}
		sum.VolumeLoad += s.VolumeLoad
		sum.TopWeight = max(sum.TopWeight, s.Weight)
		sum.BestEstimated1RM = max(sum.BestEstimated1RM, s.Estimated1RM)
		rirSum[s.ExerciseID] += s.RIR
	}

	out := make([]ExerciseSummary, 0, len(byID))
	for id, sum := range byID {
		sum.MeanRIR = float64(rirSum[id]) / float64(sum.WorkingSets)
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExerciseID < out[j].ExerciseID })
	return out
}
