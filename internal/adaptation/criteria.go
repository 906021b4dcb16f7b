package adaptation

import (
	"math"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Transition gates. Adherence is inclusive so four of five planned sessions
// pass; the others are strict.
const (
	AdherenceGate    = 80.0
	MeanRIRGate      = 4.0
	FlagRateGate     = 1.0
	LoadProgressGate = 8.0
)

// Checks reports each gate separately.
type Checks struct {
	Adherence    bool `json:"adherence"`
	MeanRIR      bool `json:"mean_rir"`
	FlagRate     bool `json:"flag_rate"`
	LoadProgress bool `json:"load_progress"`
}

// All reports whether every gate holds.
func (c Checks) All() bool {
	return c.Adherence && c.MeanRIR && c.FlagRate && c.LoadProgress
}

// Check applies the gates to a criteria snapshot.
func Check(c types.Criteria) Checks {
	return Checks{
		Adherence:    c.AdherencePercent >= AdherenceGate,
		MeanRIR:      c.MeanRIR < MeanRIRGate,
		FlagRate:     c.TechFlagRate < FlagRateGate,
		LoadProgress: c.LoadProgressPercent > LoadProgressGate,
	}
}

// Evaluate folds the tracked weeks into block-wide criteria.
//
// Adherence is completed over planned sessions across all weeks. Mean RIR
// averages the weeks that completed at least one session. The flag rate is
// flags per tracked week. Load progress compares the last week's average
// load with the baseline of the first week, which is its initial load when
// recorded and its average load otherwise.
func Evaluate(weeks []types.AdaptationWeek) types.Criteria {
	var c types.Criteria
	if len(weeks) == 0 {
		return c
	}

	var planned, completed, flags, rirWeeks int
	var rirSum float64
	for _, w := range weeks {
		planned += w.SessionsPlanned
		completed += w.SessionsCompleted
		flags += w.TechniqueFlags
		if w.SessionsCompleted > 0 {
			rirSum += w.MeanRIR
			rirWeeks++
		}
	}
	if planned > 0 {
		c.AdherencePercent = round2(float64(completed) / float64(planned) * 100)
	}
	if rirWeeks > 0 {
		c.MeanRIR = round2(rirSum / float64(rirWeeks))
	} else {
		c.MeanRIR = types.MaxRIR
	}
	c.TechFlagRate = round2(float64(flags) / float64(len(weeks)))

	first, last := weeks[0], weeks[len(weeks)-1]
	baseline := first.InitialLoad
	if baseline <= 0 {
		baseline = first.AverageLoad
	}
	if baseline > 0 {
		c.LoadProgressPercent = round2((last.AverageLoad - baseline) / baseline * 100)
	}
	return c
}

// Measure derives one week's metrics from its workouts. Mean RIR and
// average load are taken over every set of the week.
func Measure(workouts []types.AdaptationWorkout) WeekInput {
	in := WeekInput{SessionsCompleted: len(workouts)}
	var sets, rirSum int
	var loadSum float64
	for _, w := range workouts {
		for _, s := range w.Sets {
			sets++
			rirSum += s.RIR
			loadSum += s.Weight
		}
	}
	if sets > 0 {
		in.MeanRIR = round2(float64(rirSum) / float64(sets))
		in.AverageLoad = round2(loadSum / float64(sets))
	}
	return in
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
