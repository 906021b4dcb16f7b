package types

import "context"

// Exercise is a catalog entry as returned by an ExerciseRepository.
type Exercise struct {
	ExerciseID         string       `json:"exercise_id"`
	Name               string       `json:"name"`
	Level              Level        `json:"level"`
	Category           string       `json:"category"`
	Type               ExerciseType `json:"type"`
	DefaultSets        int          `json:"default_sets"`
	DefaultRepRange    string       `json:"default_rep_range"`
	DefaultRestSeconds int          `json:"default_rest_seconds"`
	RecommendedOrder   int          `json:"recommended_order"`
}

// ExerciseRepository is the read-only exercise catalog. Query returns the
// exercises matching level, category and type; an empty category or type
// matches every value. An empty result is not an error.
type ExerciseRepository interface {
	Query(ctx context.Context, level Level, category string, exerciseType ExerciseType) ([]Exercise, error)
}
