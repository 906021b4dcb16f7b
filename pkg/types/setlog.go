package types

import (
	"fmt"
	"math"
	"time"
)

// EffectiveRIRLimit is the highest RIR at which a working set still counts as
// effective volume.
const EffectiveRIRLimit = 4

// MaxRIR bounds self-reported reps in reserve.
const MaxRIR = 10

// SetLog is one logged set. IsEffective, VolumeLoad and Estimated1RM are
// derived by Derive and never supplied by callers.
type SetLog struct {
	SetID        string    `json:"set_id"`
	SessionID    string    `json:"session_id"`
	OwnerID      string    `json:"owner_id"`
	ExerciseID   string    `json:"exercise_id"`
	SetNumber    int       `json:"set_number"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	RIR          int       `json:"rir"`
	IsWarmup     bool      `json:"is_warmup"`
	IsEffective  bool      `json:"is_effective"`
	VolumeLoad   float64   `json:"volume_load"`
	Estimated1RM float64   `json:"estimated_1rm"`
	LoggedAt     time.Time `json:"logged_at"`
}

// Validate checks the caller-supplied fields.
func (s *SetLog) Validate() error {
	switch {
	case s.ExerciseID == "":
		return fmt.Errorf("%w: exercise id is required", ErrInvalidSetInput)
	case s.SetNumber < 1:
		return fmt.Errorf("%w: set number %d", ErrInvalidSetInput, s.SetNumber)
	case s.Weight < 0 || math.IsNaN(s.Weight) || math.IsInf(s.Weight, 0):
		return fmt.Errorf("%w: weight %v", ErrInvalidSetInput, s.Weight)
	case s.Reps < 0:
		return fmt.Errorf("%w: reps %d", ErrInvalidSetInput, s.Reps)
	case s.RIR < 0 || s.RIR > MaxRIR:
		return fmt.Errorf("%w: rir %d", ErrInvalidSetInput, s.RIR)
	}
	return nil
}

// Derive fills the computed fields from weight, reps, rir and isWarmup.
func (s *SetLog) Derive() {
	s.IsEffective = !s.IsWarmup && s.RIR <= EffectiveRIRLimit
	s.VolumeLoad = 0
	s.Estimated1RM = 0
	if s.IsWarmup {
		return
	}
	s.VolumeLoad = s.Weight * float64(s.Reps)
	if s.Reps > 0 {
		s.Estimated1RM = Epley1RM(s.Weight, s.Reps)
	}
}

// Epley1RM estimates a one-repetition maximum from a set.
func Epley1RM(weight float64, reps int) float64 {
	return weight * (1 + 0.0333*float64(reps))
}
