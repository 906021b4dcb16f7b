package cycle

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Adjustment values.
const (
	FemaleRestFactor     = 0.85
	PriorityIntensity    = 82.5
	NonPriorityIntensity = 76.0
	CalibrationIntensity = 70.0
	CalibrationRIR       = "4-5"
	DefaultRestSeconds   = 90
	noteFemaleRest       = "rest -15%"
	notePriority         = "priority top set at 82.5%"
	noteCalibration      = "calibration: find working loads, no progression"
)

// Owner carries the owner attributes the adjustments depend on.
type Owner struct {
	ID              string
	Level           types.Level
	Sex             types.Sex
	PriorityMuscles []string
}

// OwnerOf returns the adjustment inputs recorded on a plan.
func OwnerOf(p *types.TrainingPlan) Owner {
	return Owner{ID: p.OwnerID, Level: p.Level, Sex: p.Sex, PriorityMuscles: p.PriorityMuscles}
}

// AdjustContext is the input shared by every adjustment in a chain.
type AdjustContext struct {
	Owner       Owner
	Day         types.CycleDayTemplate
	Calibration bool
}

// Adjustment is a pure function over one assignment.
type Adjustment func(a types.ExerciseAssignment, ctx AdjustContext) types.ExerciseAssignment

// DefaultChain is the fixed adjustment order: sex-based rest, priority
// muscle boost, calibration override.
var DefaultChain = []Adjustment{SexRest, PriorityMuscle, CalibrationOverride}

// Apply runs chain over a in order.
func Apply(chain []Adjustment, a types.ExerciseAssignment, ctx AdjustContext) types.ExerciseAssignment {
	for _, adj := range chain {
		a = adj(a, ctx)
	}
	return a
}

// SexRest shortens rest on unilateral and analytic work for female owners.
func SexRest(a types.ExerciseAssignment, ctx AdjustContext) types.ExerciseAssignment {
	if ctx.Owner.Sex != types.SexFemale {
		return a
	}
	if a.Type != types.ExerciseUni && a.Type != types.ExerciseAnalytic {
		return a
	}
	a.RestSeconds = int(math.Round(float64(a.RestSeconds) * FemaleRestFactor))
	a.Notes = withNote(a.Notes, noteFemaleRest)
	return a
}

// PriorityMuscle raises intensity and adds a set for prioritized muscles on
// heavy days. Other multi-articular work that day is held at a lower
// intensity to offset the added fatigue.
func PriorityMuscle(a types.ExerciseAssignment, ctx AdjustContext) types.ExerciseAssignment {
	if !ctx.Day.IsHeavyDay || len(ctx.Owner.PriorityMuscles) == 0 {
		return a
	}
	if IsPriority(a.Category, ctx.Owner.PriorityMuscles) {
		a.IntensityPercent = PriorityIntensity
		a.TargetSets++
		a.Notes = withNote(a.Notes, notePriority)
		return a
	}
	if a.Type == types.ExerciseMulti {
		a.IntensityPercent = NonPriorityIntensity
	}
	return a
}

// CalibrationOverride pins calibration-week work to a fixed moderate
// intensity, a wider RIR range and no progression.
func CalibrationOverride(a types.ExerciseAssignment, ctx AdjustContext) types.ExerciseAssignment {
	if !ctx.Calibration {
		return a
	}
	a.IntensityPercent = CalibrationIntensity
	a.TargetRIR = CalibrationRIR
	a.NoProgression = true
	a.Notes = withNote(a.Notes, noteCalibration)
	return a
}

// IsPriority reports whether category names one of the prioritized muscles.
func IsPriority(category string, priority []string) bool {
	key := CategoryKey(category)
	for _, p := range priority {
		if CategoryKey(p) == key {
			return true
		}
	}
	return false
}

// CategoryKey normalizes a muscle category for comparison.
func CategoryKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// withNote returns a copy of notes with note appended once. Assignments are
// passed by value, so the slice must not be shared with the caller's copy.
func withNote(notes []string, note string) []string {
	out := make([]string, 0, len(notes)+1)
	for _, n := range notes {
		if n == note {
			return append(out, notes...)
		}
	}
	out = append(out, notes...)
	return append(out, note)
}
