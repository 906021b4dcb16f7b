package types

import (
	"fmt"
	"strings"
	"time"
)

// BlockType is the kind of adaptation block.
type BlockType string

// Block types.
const (
	BlockFullBody BlockType = "full_body"
	BlockHalfBody BlockType = "half_body"
)

// ParseBlockType converts a string into a BlockType.
func ParseBlockType(s string) (BlockType, error) {
	switch BlockType(strings.ToLower(strings.TrimSpace(s))) {
	case BlockFullBody:
		return BlockFullBody, nil
	case BlockHalfBody:
		return BlockHalfBody, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBlockType, s)
	}
}

// WeekRange returns the inclusive range of durations allowed for the type.
func (b BlockType) WeekRange() (minWeeks, maxWeeks int) {
	if b == BlockHalfBody {
		return 2, 2
	}
	return 1, 3
}

// CheckDuration validates weeks for the type. Zero selects the type's
// maximum.
func (b BlockType) CheckDuration(weeks int) (int, error) {
	lo, hi := b.WeekRange()
	if weeks == 0 {
		return hi, nil
	}
	if weeks < lo || weeks > hi {
		return 0, fmt.Errorf("%w: %s allows %d-%d weeks, got %d", ErrInvalidBlockDuration, b, lo, hi, weeks)
	}
	return weeks, nil
}

// BlockStatus is the lifecycle state of an adaptation block.
type BlockStatus string

// Block states. A block is ready once its criteria hold over the planned
// duration; only the owner moves it to transitioned.
const (
	BlockActive       BlockStatus = "active"
	BlockReady        BlockStatus = "ready"
	BlockTransitioned BlockStatus = "transitioned"
)

// Criteria is a snapshot of the four gating measures over the tracked weeks.
type Criteria struct {
	AdherencePercent    float64 `json:"adherence_percent"`
	MeanRIR             float64 `json:"mean_rir"`
	TechFlagRate        float64 `json:"tech_flag_rate"`
	LoadProgressPercent float64 `json:"load_progress_percent"`
}

// AdaptationBlock is the pre-cycle phase of one owner.
type AdaptationBlock struct {
	BlockID        string      `json:"block_id"`
	OwnerID        string      `json:"owner_id"`
	BlockType      BlockType   `json:"block_type"`
	DurationWeeks  int         `json:"duration_weeks"`
	WeeksTracked   int         `json:"weeks_tracked"`
	Status         BlockStatus `json:"status"`
	Criteria       Criteria    `json:"criteria"`
	StartedAt      time.Time   `json:"started_at"`
	TransitionedAt *time.Time  `json:"transitioned_at,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// MaxWeeks is the most weeks the block can track.
func (b *AdaptationBlock) MaxWeeks() int {
	_, hi := b.BlockType.WeekRange()
	return hi
}

// CurrentWeek is the week that flags and metrics are recorded against.
func (b *AdaptationBlock) CurrentWeek() int {
	return b.WeeksTracked + 1
}

// Transition moves a ready block to transitioned.
func (b *AdaptationBlock) Transition(now time.Time) error {
	switch b.Status {
	case BlockTransitioned:
		return ErrBlockTransitioned
	case BlockReady:
		b.Status = BlockTransitioned
		b.TransitionedAt = &now
		b.UpdatedAt = now
		return nil
	default:
		return ErrCriteriaNotMet
	}
}

// AdaptationWeek holds the measurements of one tracked week.
type AdaptationWeek struct {
	BlockID           string    `json:"block_id"`
	WeekNumber        int       `json:"week_number"`
	SessionsPlanned   int       `json:"sessions_planned"`
	SessionsCompleted int       `json:"sessions_completed"`
	MeanRIR           float64   `json:"mean_rir"`
	TechniqueFlags    int       `json:"technique_flags"`
	InitialLoad       float64   `json:"initial_load,omitempty"`
	AverageLoad       float64   `json:"average_load"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// Severity grades a technique flag.
type Severity string

// Severities. SeverityModerate is the default.
const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity converts a string into a Severity; empty is moderate.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case "", SeverityModerate:
		return SeverityModerate, nil
	case SeverityMild:
		return SeverityMild, nil
	case SeveritySevere:
		return SeveritySevere, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
}

// TechniqueFlag records a technique problem observed during a block week.
type TechniqueFlag struct {
	FlagID      string    `json:"flag_id"`
	BlockID     string    `json:"block_id"`
	OwnerID     string    `json:"owner_id"`
	WeekNumber  int       `json:"week_number"`
	ExerciseID  string    `json:"exercise_id,omitempty"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdaptationSet is one working set of an adaptation workout.
type AdaptationSet struct {
	ExerciseID string  `json:"exercise_id"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	RIR        int     `json:"rir"`
}

// Validate checks the set against the same bounds as a logged set.
func (s AdaptationSet) Validate() error {
	log := SetLog{ExerciseID: s.ExerciseID, SetNumber: 1, Weight: s.Weight, Reps: s.Reps, RIR: s.RIR}
	return log.Validate()
}

// AdaptationWorkout is one completed adaptation session of a block week.
type AdaptationWorkout struct {
	WorkoutID   string          `json:"workout_id"`
	BlockID     string          `json:"block_id"`
	OwnerID     string          `json:"owner_id"`
	WeekNumber  int             `json:"week_number"`
	Sets        []AdaptationSet `json:"sets"`
	CompletedAt time.Time       `json:"completed_at"`
}
