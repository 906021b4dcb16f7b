package cycle

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Selector picks up to n exercises from candidates. Candidates arrive sorted
// by recommended order and ID so a selector only has to be deterministic in
// its own state.
type Selector interface {
	Select(candidates []types.Exercise, n int) []types.Exercise
}

// SeededSelector samples without replacement from a seeded generator. Two
// selectors built from the same seed make the same picks for the same call
// sequence.
type SeededSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSelector returns a selector seeded with seed.
func NewSeededSelector(seed int64) *SeededSelector {
	return &SeededSelector{rng: rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))}
}

// Select implements Selector.
func (s *SeededSelector) Select(candidates []types.Exercise, n int) []types.Exercise {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}
	if n >= len(candidates) {
		return append([]types.Exercise(nil), candidates...)
	}
	s.mu.Lock()
	perm := s.rng.Perm(len(candidates))
	s.mu.Unlock()

	out := make([]types.Exercise, n)
	for i := range out {
		out[i] = candidates[perm[i]]
	}
	return out
}

// OrderedSelector always takes the first n candidates, i.e. the lowest
// recommended order.
type OrderedSelector struct{}

// Select implements Selector.
func (OrderedSelector) Select(candidates []types.Exercise, n int) []types.Exercise {
	if n <= 0 {
		return nil
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	return append([]types.Exercise(nil), candidates[:n]...)
}

// sortCandidates orders catalog rows independently of how the repository
// returned them.
func sortCandidates(c []types.Exercise) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].RecommendedOrder != c[j].RecommendedOrder {
			return c[i].RecommendedOrder < c[j].RecommendedOrder
		}
		return c[i].ExerciseID < c[j].ExerciseID
	})
}
