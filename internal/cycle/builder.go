// Package cycle builds the exercise content of a microcycle: it selects
// exercises from the catalog for every cycle-day template, orders them by
// type and applies the adjustment chain.
package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// maxParallelQueries bounds concurrent catalog lookups.
const maxParallelQueries = 4

// substituteCount is the size of a random substitute session.
const substituteCount = 5

// Blueprint is the generated content of one cycle day. It is copied into
// every microcycle of a plan.
type Blueprint struct {
	CycleDay         int
	SessionName      string
	IsHeavyDay       bool
	IntensityPercent float64
	Calibration      bool
	NoProgression    bool
	Assignments      []types.ExerciseAssignment
}

// Clone returns a deep copy of the blueprint.
func (b Blueprint) Clone() Blueprint {
	out := b
	out.Assignments = make([]types.ExerciseAssignment, len(b.Assignments))
	for i, a := range b.Assignments {
		a.Notes = append([]string(nil), a.Notes...)
		out.Assignments[i] = a
	}
	return out
}

// Builder produces blueprints for an owner's level.
type Builder struct {
	repo      types.ExerciseRepository
	templates *Templates
	selector  Selector
	chain     []Adjustment
	logger    *slog.Logger
}

// NewBuilder creates a Builder. A nil selector selects in recommended order
// and a nil logger uses slog.Default().
func NewBuilder(repo types.ExerciseRepository, templates *Templates, selector Selector, logger *slog.Logger) *Builder {
	if selector == nil {
		selector = OrderedSelector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		repo:      repo,
		templates: templates,
		selector:  selector,
		chain:     DefaultChain,
		logger:    logger,
	}
}

// Templates returns the builder's level templates.
func (b *Builder) Templates() *Templates {
	return b.templates
}

// slot is one (category, type) catalog request of a day.
type slot struct {
	category string
	exType   types.ExerciseType
	count    int
}

type queryKey struct {
	category string
	exType   types.ExerciseType
}

// Build generates the blueprints of every cycle day of the owner's level.
func (b *Builder) Build(ctx context.Context, owner Owner) ([]Blueprint, error) {
	days, err := b.templates.Level(owner.Level)
	if err != nil {
		return nil, err
	}

	plans := make([][]slot, len(days))
	var keys []queryKey
	seen := map[queryKey]bool{}
	for i, d := range days {
		plans[i] = daySlots(d)
		for _, s := range plans[i] {
			k := queryKey{s.category, s.exType}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	catalog, err := b.fetch(ctx, owner.Level, keys)
	if err != nil {
		return nil, err
	}

	out := make([]Blueprint, len(days))
	for i, d := range days {
		out[i] = b.buildDay(owner, d, plans[i], catalog)
	}
	return out, nil
}

// daySlots spreads each per-type count round-robin over the day's muscle
// groups, continuing the rotation across types.
func daySlots(d types.CycleDayTemplate) []slot {
	var slots []slot
	idx := map[queryKey]int{}
	g := 0
	for _, t := range types.ExerciseTypes {
		for n := 0; n < d.Count(t); n++ {
			k := queryKey{d.MuscleGroups[g%len(d.MuscleGroups)], t}
			g++
			if i, ok := idx[k]; ok {
				slots[i].count++
				continue
			}
			idx[k] = len(slots)
			slots = append(slots, slot{category: k.category, exType: t, count: 1})
		}
	}
	return slots
}

// fetch runs every catalog query concurrently. Results are keyed so the
// selection that follows is independent of completion order.
func (b *Builder) fetch(ctx context.Context, level types.Level, keys []queryKey) (map[queryKey][]types.Exercise, error) {
	var mu sync.Mutex
	out := make(map[queryKey][]types.Exercise, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for _, k := range keys {
		g.Go(func() error {
			rows, err := b.repo.Query(gctx, level, k.category, k.exType)
			if err != nil {
				return fmt.Errorf("%w: querying %s/%s/%s: %v", types.ErrDependencyUnavailable, level, k.category, k.exType, err)
			}
			sortCandidates(rows)
			mu.Lock()
			out[k] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) buildDay(owner Owner, d types.CycleDayTemplate, slots []slot, catalog map[queryKey][]types.Exercise) Blueprint {
	used := map[string]bool{}
	var picked []types.Exercise
	for _, s := range slots {
		candidates := unused(catalog[queryKey{s.category, s.exType}], used)
		sel := b.selector.Select(candidates, s.count)
		if len(sel) == 0 {
			b.logger.Warn("catalog returned no exercises, using placeholder",
				slog.String("level", string(owner.Level)),
				slog.String("category", s.category),
				slog.String("type", string(s.exType)),
				slog.Int("cycle_day", d.CycleDay),
			)
			for n := 0; n < s.count; n++ {
				sel = append(sel, Placeholder(s.category, s.exType, len(picked)+n+1))
			}
		}
		for _, e := range sel {
			used[e.ExerciseID] = true
		}
		picked = append(picked, sel...)
	}

	return Blueprint{
		CycleDay:         d.CycleDay,
		SessionName:      d.SessionName,
		IsHeavyDay:       d.IsHeavyDay,
		IntensityPercent: d.IntensityPercent,
		Assignments:      b.assign(owner, d, picked, false),
	}
}

// assign orders exercises multi, uni, analytic, then by recommended order,
// converts them to assignments and runs the adjustment chain.
func (b *Builder) assign(owner Owner, d types.CycleDayTemplate, exercises []types.Exercise, calibration bool) []types.ExerciseAssignment {
	sort.SliceStable(exercises, func(i, j int) bool {
		ri, rj := exercises[i].Type.Rank(), exercises[j].Type.Rank()
		if ri != rj {
			return ri < rj
		}
		return exercises[i].RecommendedOrder < exercises[j].RecommendedOrder
	})

	actx := AdjustContext{Owner: owner, Day: d, Calibration: calibration}
	out := make([]types.ExerciseAssignment, len(exercises))
	for i, e := range exercises {
		out[i] = Apply(b.chain, newAssignment(e, d, i+1), actx)
	}
	return out
}

func newAssignment(e types.Exercise, d types.CycleDayTemplate, order int) types.ExerciseAssignment {
	sets := e.DefaultSets
	if d.DefaultSets > 0 {
		sets = d.DefaultSets
	}
	if sets <= 0 {
		sets = 3
	}
	reps := d.DefaultRepRange
	if reps == "" {
		reps = e.DefaultRepRange
	}
	rest := e.DefaultRestSeconds
	if rest <= 0 {
		rest = DefaultRestSeconds
	}
	return types.ExerciseAssignment{
		Order:            order,
		ExerciseID:       e.ExerciseID,
		ExerciseName:     e.Name,
		Category:         e.Category,
		Type:             e.Type,
		TargetSets:       sets,
		TargetRepRange:   reps,
		TargetRIR:        d.DefaultRIR,
		RestSeconds:      rest,
		IntensityPercent: d.IntensityPercent,
		Status:           types.SessionPending,
	}
}

// Substitute builds replacement content for a session whose template is
// missing. It draws a random level-filtered selection from the catalog and
// falls back to a single placeholder when the catalog is empty.
func (b *Builder) Substitute(ctx context.Context, owner Owner, cycleDay int) (Blueprint, error) {
	rows, err := b.repo.Query(ctx, owner.Level, "", "")
	if err != nil {
		return Blueprint{}, fmt.Errorf("%w: querying substitute exercises: %v", types.ErrDependencyUnavailable, err)
	}
	sortCandidates(rows)
	picked := b.selector.Select(rows, substituteCount)
	if len(picked) == 0 {
		picked = []types.Exercise{Placeholder("full body", types.ExerciseMulti, 1)}
	}

	d := types.CycleDayTemplate{
		CycleDay:         cycleDay,
		SessionName:      "Substitute session",
		IntensityPercent: 70,
		DefaultSets:      3,
		DefaultRepRange:  "10-12",
		DefaultRIR:       "2-3",
	}
	return Blueprint{
		CycleDay:         cycleDay,
		SessionName:      d.SessionName,
		IntensityPercent: d.IntensityPercent,
		Assignments:      b.assign(owner, d, picked, false),
	}, nil
}

// Placeholder is the generic exercise used when the catalog has nothing for
// a category and type. slot keeps IDs unique within a session.
func Placeholder(category string, t types.ExerciseType, slot int) types.Exercise {
	return types.Exercise{
		ExerciseID:         fmt.Sprintf("generic-%s-%s-%d", CategoryKey(category), t, slot),
		Name:               fmt.Sprintf("Generic %s %s exercise", category, t),
		Category:           category,
		Type:               t,
		DefaultRestSeconds: DefaultRestSeconds,
		RecommendedOrder:   1 << 20,
	}
}

func unused(rows []types.Exercise, used map[string]bool) []types.Exercise {
	out := make([]types.Exercise, 0, len(rows))
	for _, r := range rows {
		if !used[r.ExerciseID] {
			out = append(out, r)
		}
	}
	return out
}
