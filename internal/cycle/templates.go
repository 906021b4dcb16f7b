package cycle

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

//go:embed templates.toml
var defaultTemplatesTOML string

// Templates holds the static cycle-day templates of every level.
type Templates struct {
	levels map[types.Level][]types.CycleDayTemplate
}

type templateFile struct {
	Level map[string]struct {
		Days []types.CycleDayTemplate `toml:"days"`
	} `toml:"level"`
}

// DefaultTemplates returns the templates shipped with the binary.
func DefaultTemplates() (*Templates, error) {
	return ParseTemplates(defaultTemplatesTOML)
}

// ParseTemplates decodes and validates a TOML template document. Unknown keys
// are rejected so a typo cannot silently drop a field.
func ParseTemplates(data string) (*Templates, error) {
	var f templateFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown template keys: %s", types.ErrValidation, strings.Join(keys, ", "))
	}

	t := &Templates{levels: make(map[types.Level][]types.CycleDayTemplate, len(f.Level))}
	for name, lvl := range f.Level {
		level, err := types.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		days := append([]types.CycleDayTemplate(nil), lvl.Days...)
		sort.Slice(days, func(i, j int) bool { return days[i].CycleDay < days[j].CycleDay })
		if err := checkDays(level, days); err != nil {
			return nil, err
		}
		t.levels[level] = days
	}
	return t, nil
}

func checkDays(level types.Level, days []types.CycleDayTemplate) error {
	if len(days) != types.CycleLength {
		return fmt.Errorf("%w: level %s has %d days, want %d", types.ErrValidation, level, len(days), types.CycleLength)
	}
	for i, d := range days {
		switch {
		case d.CycleDay != i+1:
			return fmt.Errorf("%w: level %s day %d out of sequence", types.ErrInvalidCycleDay, level, d.CycleDay)
		case len(d.MuscleGroups) == 0:
			return fmt.Errorf("%w: level %s day %d has no muscle groups", types.ErrValidation, level, d.CycleDay)
		case d.MultiCount < 0 || d.UniCount < 0 || d.AnalyticCount < 0:
			return fmt.Errorf("%w: level %s day %d has negative counts", types.ErrValidation, level, d.CycleDay)
		case d.MultiCount+d.UniCount+d.AnalyticCount == 0:
			return fmt.Errorf("%w: level %s day %d has no exercises", types.ErrValidation, level, d.CycleDay)
		case d.IntensityPercent <= 0 || d.IntensityPercent > 100:
			return fmt.Errorf("%w: level %s day %d intensity %v", types.ErrValidation, level, d.CycleDay, d.IntensityPercent)
		}
	}
	return nil
}

// Level returns the five days of a level.
func (t *Templates) Level(level types.Level) ([]types.CycleDayTemplate, error) {
	days, ok := t.levels[level]
	if !ok {
		return nil, fmt.Errorf("%w: no templates for %q", types.ErrInvalidLevel, level)
	}
	return days, nil
}

// Day returns one cycle day of a level.
func (t *Templates) Day(level types.Level, cycleDay int) (types.CycleDayTemplate, error) {
	days, err := t.Level(level)
	if err != nil {
		return types.CycleDayTemplate{}, err
	}
	if cycleDay < 1 || cycleDay > len(days) {
		return types.CycleDayTemplate{}, fmt.Errorf("%w: %d", types.ErrInvalidCycleDay, cycleDay)
	}
	return days[cycleDay-1], nil
}
