package types

import (
	"fmt"
	"time"
)

// CycleLength is the number of cycle days in one microcycle. It is fixed for
// every plan.
const CycleLength = 5

// MaxMicrocycles bounds the main cycle of a plan.
const MaxMicrocycles = 52

// PlanStatus is the lifecycle state of a TrainingPlan.
type PlanStatus string

// Plan states. A plan is generated as a draft and confirmed into active.
const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCancelled PlanStatus = "cancelled"
	PlanCompleted PlanStatus = "completed"
)

// IsTerminal reports whether no further transition is possible.
func (s PlanStatus) IsTerminal() bool {
	return s == PlanCancelled || s == PlanCompleted
}

// TrainingPlan is one owner's generated main cycle. Entity methods modify the
// struct in memory; the caller persists it through PlanTable.Put.
type TrainingPlan struct {
	PlanID             string     `json:"plan_id"`
	OwnerID            string     `json:"owner_id"`
	Level              Level      `json:"level"`
	Sex                Sex        `json:"sex,omitempty"`
	PriorityMuscles    []string   `json:"priority_muscles,omitempty"`
	CycleLength        int        `json:"cycle_length"`
	TotalMicrocycles   int        `json:"total_microcycles"`
	HasCalibrationWeek bool       `json:"has_calibration_week"`
	IncludeSaturday    bool       `json:"include_saturday"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	Seed               int64      `json:"seed"`
	Status             PlanStatus `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TotalSessions is the number of scheduled sessions the plan owns, counting
// the calibration microcycle when present.
func (p *TrainingPlan) TotalSessions() int {
	n := p.TotalMicrocycles
	if p.HasCalibrationWeek {
		n++
	}
	return n * p.CycleLength
}

// FirstMicrocycle returns 0 when the plan opens with a calibration
// microcycle and 1 otherwise.
func (p *TrainingPlan) FirstMicrocycle() int {
	if p.HasCalibrationWeek {
		return 0
	}
	return 1
}

// CheckSlot validates a (microcycle, cycleDay) pair against the plan shape.
func (p *TrainingPlan) CheckSlot(microcycle, cycleDay int) error {
	if cycleDay < 1 || cycleDay > p.CycleLength {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidCycleDay, cycleDay, p.CycleLength)
	}
	if microcycle < p.FirstMicrocycle() || microcycle > p.TotalMicrocycles {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidMicrocycle, microcycle, p.FirstMicrocycle(), p.TotalMicrocycles)
	}
	return nil
}

// Confirm moves a draft plan to active.
func (p *TrainingPlan) Confirm(now time.Time) error {
	switch {
	case p.Status.IsTerminal():
		return fmt.Errorf("%w: %s", ErrPlanTerminal, p.Status)
	case p.Status != PlanDraft:
		return fmt.Errorf("%w: %s", ErrPlanNotDraft, p.Status)
	}
	p.Status = PlanActive
	p.UpdatedAt = now
	return nil
}

// Cancel moves a draft or active plan to cancelled. The caller is
// responsible for cancelling the plan's open sessions in the same unit of
// work.
func (p *TrainingPlan) Cancel(now time.Time) error {
	if p.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrPlanTerminal, p.Status)
	}
	p.Status = PlanCancelled
	p.UpdatedAt = now
	return nil
}

// Complete moves an active plan to completed once every session is terminal.
func (p *TrainingPlan) Complete(now time.Time) error {
	if p.Status != PlanActive {
		return fmt.Errorf("%w: plan %s -> %s", ErrInvalidTransition, p.Status, PlanCompleted)
	}
	p.Status = PlanCompleted
	p.UpdatedAt = now
	return nil
}

// CycleState is the plan-level progression state created together with the
// plan. MicrocyclesCompleted counts main-cycle microcycles that advanced.
type CycleState struct {
	PlanID               string    `json:"plan_id"`
	OwnerID              string    `json:"owner_id"`
	MicrocyclesCompleted int       `json:"microcycles_completed"`
	DeloadCounter        int       `json:"deload_counter"`
	DeloadMicrocycle     int       `json:"deload_microcycle,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DeloadActive reports whether microcycle is the scheduled reduced-intensity
// microcycle.
func (c *CycleState) DeloadActive(microcycle int) bool {
	return c.DeloadMicrocycle != 0 && c.DeloadMicrocycle == microcycle
}
