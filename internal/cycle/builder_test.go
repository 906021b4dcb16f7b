package cycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

type MockExerciseRepository struct {
	mock.Mock
}

func (m *MockExerciseRepository) Query(ctx context.Context, level types.Level, category string, t types.ExerciseType) ([]types.Exercise, error) {
	args := m.Called(ctx, level, category, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Exercise), args.Error(1)
}

// fakeCatalog returns three exercises for every (category, type) pair with
// distinct rest periods per type.
type fakeCatalog struct{}

func (fakeCatalog) Query(_ context.Context, level types.Level, category string, t types.ExerciseType) ([]types.Exercise, error) {
	rest := map[types.ExerciseType]int{types.ExerciseMulti: 120, types.ExerciseUni: 90, types.ExerciseAnalytic: 60}
	cats := []string{category}
	if category == "" {
		cats = []string{"chest", "back"}
	}
	exTypes := []types.ExerciseType{t}
	if t == "" {
		exTypes = types.ExerciseTypes
	}
	var out []types.Exercise
	for _, c := range cats {
		for _, et := range exTypes {
			for i := 3; i >= 1; i-- {
				out = append(out, types.Exercise{
					ExerciseID:         fmt.Sprintf("%s-%s-%d", c, et, i),
					Name:               fmt.Sprintf("%s %s %d", c, et, i),
					Level:              level,
					Category:           c,
					Type:               et,
					DefaultSets:        3,
					DefaultRepRange:    "8-12",
					DefaultRestSeconds: rest[et],
					RecommendedOrder:   i,
				})
			}
		}
	}
	return out, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBuilder(t *testing.T, repo types.ExerciseRepository, sel Selector) *Builder {
	t.Helper()
	tpl, err := DefaultTemplates()
	require.NoError(t, err)
	return NewBuilder(repo, tpl, sel, quietLogger())
}

func TestBuildOrdersByTypeForEveryLevel(t *testing.T) {
	b := newTestBuilder(t, fakeCatalog{}, NewSeededSelector(7))

	for _, level := range types.Levels {
		t.Run(string(level), func(t *testing.T) {
			days, err := b.Build(context.Background(), Owner{Level: level})
			require.NoError(t, err)
			require.Len(t, days, types.CycleLength)

			for i, d := range days {
				assert.Equal(t, i+1, d.CycleDay)
				require.NotEmpty(t, d.Assignments)
				assert.NoError(t, types.CheckOrder(d.Assignments))

				ids := map[string]bool{}
				for j, a := range d.Assignments {
					assert.Equal(t, j+1, a.Order)
					assert.False(t, ids[a.ExerciseID], "duplicate exercise %s", a.ExerciseID)
					ids[a.ExerciseID] = true
					assert.Equal(t, types.SessionPending, a.Status)
				}
			}
		})
	}
}

func TestBuildCountsMatchTemplate(t *testing.T) {
	b := newTestBuilder(t, fakeCatalog{}, OrderedSelector{})
	days, err := b.Build(context.Background(), Owner{Level: types.LevelIntermediate})
	require.NoError(t, err)

	tpl, err := b.Templates().Level(types.LevelIntermediate)
	require.NoError(t, err)
	for i, d := range days {
		counts := map[types.ExerciseType]int{}
		for _, a := range d.Assignments {
			counts[a.Type]++
		}
		for _, et := range types.ExerciseTypes {
			assert.Equal(t, tpl[i].Count(et), counts[et], "day %d type %s", d.CycleDay, et)
		}
	}
}

func TestBuildSecondaryOrderIsRecommendedOrder(t *testing.T) {
	b := newTestBuilder(t, fakeCatalog{}, OrderedSelector{})
	days, err := b.Build(context.Background(), Owner{Level: types.LevelAdvanced})
	require.NoError(t, err)

	// Advanced day 2 asks for two pull multis: back then biceps in rotation.
	a := days[1].Assignments
	require.GreaterOrEqual(t, len(a), 2)
	assert.Equal(t, "back-multi-1", a[0].ExerciseID)
}

func TestBuildIsReproducibleForSeed(t *testing.T) {
	owner := Owner{Level: types.LevelAdvanced, Sex: types.SexFemale}

	first, err := newTestBuilder(t, fakeCatalog{}, NewSeededSelector(42)).Build(context.Background(), owner)
	require.NoError(t, err)
	second, err := newTestBuilder(t, fakeCatalog{}, NewSeededSelector(42)).Build(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildSexRestAdjustment(t *testing.T) {
	tests := []struct {
		name string
		sex  types.Sex
	}{
		{name: "female", sex: types.SexFemale},
		{name: "male", sex: types.SexMale},
		{name: "unspecified", sex: types.SexUnspecified},
	}
	base := map[types.ExerciseType]int{types.ExerciseMulti: 120, types.ExerciseUni: 90, types.ExerciseAnalytic: 60}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t, fakeCatalog{}, OrderedSelector{})
			days, err := b.Build(context.Background(), Owner{Level: types.LevelIntermediate, Sex: tt.sex})
			require.NoError(t, err)

			for _, d := range days {
				for _, a := range d.Assignments {
					want := base[a.Type]
					if tt.sex == types.SexFemale && a.Type != types.ExerciseMulti {
						want = int(math.Round(float64(want) * 0.85))
					}
					assert.Equal(t, want, a.RestSeconds, "%s %s", a.ExerciseID, a.Type)
				}
			}
		})
	}
}

func TestBuildPriorityMuscleOnHeavyDaysOnly(t *testing.T) {
	b := newTestBuilder(t, fakeCatalog{}, OrderedSelector{})
	days, err := b.Build(context.Background(), Owner{Level: types.LevelIntermediate, PriorityMuscles: []string{"Chest"}})
	require.NoError(t, err)

	for _, d := range days {
		for _, a := range d.Assignments {
			switch {
			case d.IsHeavyDay && a.Category == "chest":
				assert.Equal(t, PriorityIntensity, a.IntensityPercent)
				assert.Equal(t, 5, a.TargetSets)
				assert.Contains(t, a.Notes, notePriority)
			case d.IsHeavyDay && a.Type == types.ExerciseMulti:
				assert.Equal(t, NonPriorityIntensity, a.IntensityPercent)
			default:
				assert.Equal(t, d.IntensityPercent, a.IntensityPercent)
				assert.NotContains(t, a.Notes, notePriority)
			}
		}
	}
}

func TestBuildFallsBackToPlaceholder(t *testing.T) {
	repo := new(MockExerciseRepository)
	repo.On("Query", mock.Anything, types.LevelBeginner, mock.Anything, mock.Anything).Return([]types.Exercise{}, nil)

	b := newTestBuilder(t, repo, NewSeededSelector(1))
	days, err := b.Build(context.Background(), Owner{Level: types.LevelBeginner})
	require.NoError(t, err)

	for _, d := range days {
		require.Len(t, d.Assignments, 3)
		assert.NoError(t, types.CheckOrder(d.Assignments))
		for _, a := range d.Assignments {
			assert.Contains(t, a.ExerciseID, "generic-")
			assert.Equal(t, DefaultRestSeconds, a.RestSeconds)
		}
	}
	repo.AssertExpectations(t)
}

func TestBuildRepositoryFailure(t *testing.T) {
	repo := new(MockExerciseRepository)
	repo.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("catalog offline"))

	b := newTestBuilder(t, repo, nil)
	_, err := b.Build(context.Background(), Owner{Level: types.LevelBeginner})
	assert.ErrorIs(t, err, types.ErrDependencyUnavailable)
}

func TestBuildUnknownLevel(t *testing.T) {
	b := newTestBuilder(t, fakeCatalog{}, nil)
	_, err := b.Build(context.Background(), Owner{Level: "elite"})
	assert.ErrorIs(t, err, types.ErrInvalidLevel)
}

func TestSubstitute(t *testing.T) {
	b := newTestBuilder(t, fakeCatalog{}, NewSeededSelector(3))
	bp, err := b.Substitute(context.Background(), Owner{Level: types.LevelBeginner}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, bp.CycleDay)
	assert.Len(t, bp.Assignments, substituteCount)
	assert.NoError(t, types.CheckOrder(bp.Assignments))

	repo := new(MockExerciseRepository)
	repo.On("Query", mock.Anything, types.LevelBeginner, "", types.ExerciseType("")).Return(nil, nil)
	bp, err = newTestBuilder(t, repo, nil).Substitute(context.Background(), Owner{Level: types.LevelBeginner}, 2)
	require.NoError(t, err)
	require.Len(t, bp.Assignments, 1)
	assert.Contains(t, bp.Assignments[0].ExerciseID, "generic-")
}

func TestCalibrator(t *testing.T) {
	for _, level := range types.Levels {
		t.Run(string(level), func(t *testing.T) {
			b := newTestBuilder(t, fakeCatalog{}, OrderedSelector{})
			days, err := b.Build(context.Background(), Owner{Level: level})
			require.NoError(t, err)

			week0 := Calibrator{}.Calibrate(days)
			require.Len(t, week0, len(days))
			for i, d := range week0 {
				assert.True(t, d.Calibration)
				assert.True(t, d.NoProgression)
				assert.Equal(t, CalibrationIntensity, d.IntensityPercent)
				require.Len(t, d.Assignments, len(days[i].Assignments))
				for j, a := range d.Assignments {
					assert.Equal(t, CalibrationIntensity, a.IntensityPercent)
					assert.Equal(t, "4-5", a.TargetRIR)
					assert.True(t, a.NoProgression)

					_, mainHigh := rirBounds(t, days[i].Assignments[j].TargetRIR)
					calLow, _ := rirBounds(t, a.TargetRIR)
					assert.Greater(t, calLow, mainHigh, "calibration RIR %s must sit above %s", a.TargetRIR, days[i].Assignments[j].TargetRIR)
				}
			}

			for _, d := range days {
				assert.False(t, d.Calibration, "main blueprints must be untouched")
				for _, a := range d.Assignments {
					assert.False(t, a.NoProgression)
					assert.NotContains(t, a.Notes, noteCalibration)
				}
			}
		})
	}
}

func rirBounds(t *testing.T, r string) (int, int) {
	t.Helper()
	lo, hi, ok := strings.Cut(r, "-")
	require.True(t, ok, "rir range %q", r)
	l, err := strconv.Atoi(lo)
	require.NoError(t, err)
	h, err := strconv.Atoi(hi)
	require.NoError(t, err)
	return l, h
}
