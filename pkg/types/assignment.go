package types

import "fmt"

// CycleDayTemplate describes one cycle day of a level. Templates are static
// and read-only at runtime.
type CycleDayTemplate struct {
	CycleDay         int      `toml:"cycle_day" json:"cycle_day"`
	SessionName      string   `toml:"session_name" json:"session_name"`
	MuscleGroups     []string `toml:"muscle_groups" json:"muscle_groups"`
	MultiCount       int      `toml:"multi" json:"multi"`
	UniCount         int      `toml:"uni" json:"uni"`
	AnalyticCount    int      `toml:"analytic" json:"analytic"`
	IntensityPercent float64  `toml:"intensity" json:"intensity_percent"`
	IsHeavyDay       bool     `toml:"heavy" json:"is_heavy_day"`
	DefaultSets      int      `toml:"sets" json:"default_sets"`
	DefaultRepRange  string   `toml:"reps" json:"default_rep_range"`
	DefaultRIR       string   `toml:"rir" json:"default_rir"`
}

// Count returns how many exercises of type t the day requires.
func (d CycleDayTemplate) Count(t ExerciseType) int {
	switch t {
	case ExerciseMulti:
		return d.MultiCount
	case ExerciseUni:
		return d.UniCount
	case ExerciseAnalytic:
		return d.AnalyticCount
	default:
		return 0
	}
}

// ExerciseAssignment is one exercise entry of a scheduled session. Status
// shares the session vocabulary.
type ExerciseAssignment struct {
	AssignmentID     string        `json:"assignment_id"`
	SessionID        string        `json:"session_id"`
	Order            int           `json:"order"`
	ExerciseID       string        `json:"exercise_id"`
	ExerciseName     string        `json:"exercise_name"`
	Category         string        `json:"category"`
	Type             ExerciseType  `json:"type"`
	TargetSets       int           `json:"target_sets"`
	TargetRepRange   string        `json:"target_rep_range"`
	TargetRIR        string        `json:"target_rir"`
	RestSeconds      int           `json:"rest_seconds"`
	IntensityPercent float64       `json:"intensity_percent"`
	NoProgression    bool          `json:"no_progression"`
	Notes            []string      `json:"notes,omitempty"`
	Status           SessionStatus `json:"status"`
	SeriesCompleted  int           `json:"series_completed"`
}

// AddNote appends a note unless it is already present.
func (a *ExerciseAssignment) AddNote(note string) {
	for _, n := range a.Notes {
		if n == note {
			return
		}
	}
	a.Notes = append(a.Notes, note)
}

// Begin marks a pending entry as in_progress. It is a no-op for entries that
// already started.
func (a *ExerciseAssignment) Begin() {
	if a.Status == SessionPending || a.Status == "" {
		a.Status = SessionInProgress
	}
}

// Settle moves the entry to a terminal status. Skipped and cancelled entries
// always record zero completed series.
func (a *ExerciseAssignment) Settle(status SessionStatus, series int) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrInvalidExerciseStatus, status)
	}
	if a.Status.IsTerminal() {
		return fmt.Errorf("%w: exercise %s -> %s", ErrInvalidTransition, a.Status, status)
	}
	if series < 0 {
		series = 0
	}
	if status != SessionCompleted {
		series = 0
	}
	a.Status = status
	a.SeriesCompleted = series
	return nil
}

// Close settles an open entry to match how its session ended. A completed
// session completes started entries and skips untouched ones; skipped and
// cancelled sessions pass their status down. It reports whether the entry
// changed.
func (a *ExerciseAssignment) Close(session SessionStatus) bool {
	if a.Status.IsTerminal() || !session.IsTerminal() {
		return false
	}
	to := session
	if session == SessionCompleted && a.Status != SessionInProgress {
		to = SessionSkipped
	}
	_ = a.Settle(to, a.SeriesCompleted)
	return true
}

// CheckOrder verifies that assignments are sorted multi, uni, analytic.
func CheckOrder(assignments []ExerciseAssignment) error {
	for i := 1; i < len(assignments); i++ {
		if assignments[i].Type.Rank() < assignments[i-1].Type.Rank() {
			return fmt.Errorf("%w: %s after %s at position %d", ErrValidation,
				assignments[i].Type, assignments[i-1].Type, i)
		}
	}
	return nil
}
