package types

import "time"

// DefaultDeloadEvery is the number of completed microcycles between deloads.
const DefaultDeloadEvery = 6

// DefaultIncrementPercent is the load increase applied after a completed
// microcycle.
const DefaultIncrementPercent = 2.5

// ProgressionRecord tracks one exercise for one owner. It is created on the
// first completed microcycle that touches the exercise. MicrocyclesCompleted
// is never reset; deloads are derived from it modulo the deload period.
type ProgressionRecord struct {
	OwnerID                   string    `json:"owner_id"`
	ExerciseID                string    `json:"exercise_id"`
	CurrentLoadRecommendation float64   `json:"current_load_recommendation"`
	MicrocyclesCompleted      int       `json:"microcycles_completed"`
	DeloadCounter             int       `json:"deload_counter"`
	BestEstimated1RM          float64   `json:"best_estimated_1rm"`
	LastVolumeLoad            float64   `json:"last_volume_load"`
	LastEffectiveSets         int       `json:"last_effective_sets"`
	LastUpdated               time.Time `json:"last_updated"`
}

// DeloadDue reports whether a deload falls on the given completed-microcycle
// count.
func DeloadDue(microcyclesCompleted, every int) bool {
	return every > 0 && microcyclesCompleted > 0 && microcyclesCompleted%every == 0
}

// ProgressionStatus is the answer to a progression query. Tracked is false
// when the exercise has no completed microcycle yet.
type ProgressionStatus struct {
	OwnerID    string             `json:"owner_id"`
	ExerciseID string             `json:"exercise_id"`
	Tracked    bool               `json:"tracked"`
	DeloadDue  bool               `json:"deload_due"`
	Record     *ProgressionRecord `json:"record,omitempty"`
}
