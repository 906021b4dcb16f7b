package adaptation

import "github.com/mesh-intelligence/cyclecoach/pkg/types"

// Phase holds the training parameters of an adaptation block.
type Phase struct {
	BlockType    types.BlockType `json:"block_type"`
	IntensityMin float64         `json:"intensity_min"`
	IntensityMax float64         `json:"intensity_max"`
	RIRMin       int             `json:"rir_min"`
	RIRMax       int             `json:"rir_max"`
	Sets         int             `json:"sets"`
	RepsMin      int             `json:"reps_min"`
	RepsMax      int             `json:"reps_max"`
	RestMin      int             `json:"rest_min_seconds"`
	RestMax      int             `json:"rest_max_seconds"`
	DaysPerWeek  int             `json:"days_per_week"`
	Rotation     []string        `json:"rotation,omitempty"`
}

// PhaseFor returns the parameters for a block. A one-week full body block
// trains four days; longer ones train three. Half body alternates upper and
// lower sessions five days a week.
func PhaseFor(b *types.AdaptationBlock) Phase {
	if b.BlockType == types.BlockHalfBody {
		return Phase{
			BlockType:    types.BlockHalfBody,
			IntensityMin: 75, IntensityMax: 80,
			RIRMin: 2, RIRMax: 3,
			Sets: 3, RepsMin: 10, RepsMax: 12,
			RestMin: 45, RestMax: 75,
			DaysPerWeek: 5,
			Rotation:    []string{"A", "B"},
		}
	}
	days := 3
	if b.DurationWeeks == 1 {
		days = 4
	}
	return Phase{
		BlockType:    types.BlockFullBody,
		IntensityMin: 65, IntensityMax: 70,
		RIRMin: 3, RIRMax: 4,
		Sets: 3, RepsMin: 12, RepsMax: 15,
		RestMin: 30, RestMax: 60,
		DaysPerWeek: days,
	}
}
