package coach

import (
	"context"
	"fmt"
	"testing"

	"github.com/mesh-intelligence/cyclecoach/internal/session"
	"github.com/mesh-intelligence/cyclecoach/internal/sqlite"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func newBenchCoach(b *testing.B) *Coach {
	b.Helper()
	store := sqlite.NewBackend(nil)
	if err := store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: b.TempDir()}); err != nil {
		b.Fatalf("Attach: %v", err)
	}
	b.Cleanup(func() { store.Detach() })

	c, err := New(store, store.Catalog(), DefaultSettings(), nil)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	return c
}

func BenchmarkGeneratePlan(b *testing.B) {
	for _, micro := range []int{4, 8, 12} {
		b.Run(fmt.Sprintf("microcycles=%d", micro), func(b *testing.B) {
			c := newBenchCoach(b)
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := c.GeneratePlan(ctx, GenerateRequest{
					OwnerID: fmt.Sprintf("bench-%d", i), Level: types.LevelAdvanced,
					TotalMicrocycles: micro, Seed: int64(i + 1),
				})
				if err != nil {
					b.Fatalf("GeneratePlan: %v", err)
				}
			}
		})
	}
}

func BenchmarkLogSet(b *testing.B) {
	c := newBenchCoach(b)
	ctx := context.Background()

	view, err := c.GeneratePlan(ctx, GenerateRequest{OwnerID: owner, Level: types.LevelBeginner, Seed: 1})
	if err != nil {
		b.Fatalf("GeneratePlan: %v", err)
	}
	if _, err := c.ConfirmPlan(ctx, owner, view.Plan.PlanID); err != nil {
		b.Fatalf("ConfirmPlan: %v", err)
	}
	st, err := c.StartSession(ctx, session.StartRequest{OwnerID: owner, PlanID: view.Plan.PlanID, Microcycle: 0, CycleDay: 1})
	if err != nil {
		b.Fatalf("StartSession: %v", err)
	}
	exerciseID := st.Exercises[0].ExerciseID

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := c.LogSet(ctx, session.LogSetRequest{
			OwnerID: owner, SessionID: st.Session.SessionID, ExerciseID: exerciseID,
			SetNumber: i + 1, Weight: 50, Reps: 8, RIR: 2, IsWarmup: true,
		})
		if err != nil {
			b.Fatalf("LogSet: %v", err)
		}
	}
}
