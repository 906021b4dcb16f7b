package types

import (
	"fmt"
	"strings"
)

// Level is the owner's training experience level.
type Level string

// Training levels.
const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists every known level in ascending order of experience.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseLevel converts a case-insensitive string into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelBeginner:
		return LevelBeginner, nil
	case LevelIntermediate:
		return LevelIntermediate, nil
	case LevelAdvanced:
		return LevelAdvanced, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// AtOrBelow returns l and every less experienced level.
func (l Level) AtOrBelow() []Level {
	for i, lv := range Levels {
		if lv == l {
			return Levels[:i+1]
		}
	}
	return nil
}

// DefaultMicrocycles returns the main-cycle length used when a plan request
// does not name one.
func (l Level) DefaultMicrocycles() int {
	switch l {
	case LevelBeginner:
		return 8
	case LevelAdvanced:
		return 12
	default:
		return 10
	}
}

// Sex drives the rest-period adjustment for isolation work.
type Sex string

// Sex values. SexUnspecified applies no adjustment.
const (
	SexUnspecified Sex = ""
	SexMale        Sex = "male"
	SexFemale      Sex = "female"
)

// ParseSex accepts the common spellings for each value. An empty string is
// SexUnspecified.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SexUnspecified, nil
	case "female", "f", "woman":
		return SexFemale, nil
	case "male", "m", "man":
		return SexMale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSex, s)
	}
}

// ExerciseType classifies an exercise by the joints it loads.
type ExerciseType string

// Exercise types in session order.
const (
	ExerciseMulti    ExerciseType = "multi"
	ExerciseUni      ExerciseType = "uni"
	ExerciseAnalytic ExerciseType = "analytic"
)

// ExerciseTypes lists the types in the order they are scheduled.
var ExerciseTypes = []ExerciseType{ExerciseMulti, ExerciseUni, ExerciseAnalytic}

// ParseExerciseType converts a string into an ExerciseType.
func ParseExerciseType(s string) (ExerciseType, error) {
	switch ExerciseType(strings.ToLower(strings.TrimSpace(s))) {
	case ExerciseMulti:
		return ExerciseMulti, nil
	case ExerciseUni:
		return ExerciseUni, nil
	case ExerciseAnalytic:
		return ExerciseAnalytic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidExerciseType, s)
	}
}

// Rank orders exercise types within a session: multi before uni before
// analytic. Unknown types sort last.
func (t ExerciseType) Rank() int {
	switch t {
	case ExerciseMulti:
		return 1
	case ExerciseUni:
		return 2
	case ExerciseAnalytic:
		return 3
	default:
		return 4
	}
}
