package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func TestCatalog_SeededOnFirstAttach(t *testing.T) {
	b := newTestBackend(t)

	n, err := b.Catalog().Count(context.Background())
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestCatalog_Query(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		level     types.Level
		category  string
		exType    types.ExerciseType
		wantLevel []types.Level
		wantCat   string
		wantType  types.ExerciseType
	}{
		{
			name:      "beginner sees only beginner entries",
			level:     types.LevelBeginner,
			category:  "chest",
			exType:    types.ExerciseMulti,
			wantLevel: []types.Level{types.LevelBeginner},
			wantCat:   "chest",
			wantType:  types.ExerciseMulti,
		},
		{
			name:      "advanced includes lower levels",
			level:     types.LevelAdvanced,
			category:  "back",
			exType:    types.ExerciseMulti,
			wantLevel: types.Levels,
			wantCat:   "back",
			wantType:  types.ExerciseMulti,
		},
		{
			name:      "category match ignores case",
			level:     types.LevelIntermediate,
			category:  "Glutes",
			wantLevel: []types.Level{types.LevelBeginner, types.LevelIntermediate},
			wantCat:   "glutes",
		},
		{
			name:      "empty category and type match all",
			level:     types.LevelBeginner,
			wantLevel: []types.Level{types.LevelBeginner},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := b.Catalog().Query(ctx, tt.level, tt.category, tt.exType)
			require.NoError(t, err)
			require.NotEmpty(t, rows)
			for _, r := range rows {
				assert.Contains(t, tt.wantLevel, r.Level)
				if tt.wantCat != "" {
					assert.Equal(t, tt.wantCat, r.Category)
				}
				if tt.wantType != "" {
					assert.Equal(t, tt.wantType, r.Type)
				}
			}
		})
	}
}

func TestCatalog_QueryAdvancedFindsAdvancedOnly(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	beginner, err := b.Catalog().Query(ctx, types.LevelBeginner, "", "")
	require.NoError(t, err)
	advanced, err := b.Catalog().Query(ctx, types.LevelAdvanced, "", "")
	require.NoError(t, err)
	assert.Greater(t, len(advanced), len(beginner))
}

func TestCatalog_QueryUnknownCategoryIsEmpty(t *testing.T) {
	b := newTestBackend(t)

	rows, err := b.Catalog().Query(context.Background(), types.LevelAdvanced, "forearms", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCatalog_QueryInvalidLevel(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Catalog().Query(context.Background(), "expert", "", "")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCatalog_LoadsFromDataDir(t *testing.T) {
	dir := t.TempDir()
	content := `{"exercise_id":"sq","name":"Squat","level":"beginner","category":"quadriceps","type":"multi","default_sets":5,"recommended_order":1}
not json
{"exercise_id":"bad","name":"Bad","level":"expert","category":"quadriceps","type":"multi"}

{"exercise_id":"ext","name":"Leg extension","level":"Beginner","category":"quadriceps","type":"analytic","recommended_order":2,"future_field":true}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CatalogFile), []byte(content), 0o644))

	b := NewBackend(testLogger(t))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	rows, err := b.Catalog().Query(context.Background(), types.LevelAdvanced, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "sq", rows[0].ExerciseID)
	assert.Equal(t, 5, rows[0].DefaultSets)
	assert.Equal(t, 90, rows[0].DefaultRestSeconds)
	assert.Equal(t, "ext", rows[1].ExerciseID)
	assert.Equal(t, types.LevelBeginner, rows[1].Level)
	assert.Equal(t, 3, rows[1].DefaultSets)
}

func TestCatalog_NotReloadedWhenPopulated(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	ctx := context.Background()

	b := NewBackend(testLogger(t))
	require.NoError(t, b.Attach(config))
	before, err := b.Catalog().Count(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	content := `{"exercise_id":"only","name":"Only","level":"beginner","category":"chest","type":"multi"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CatalogFile), []byte(content), 0o644))

	require.NoError(t, b.Attach(config))
	defer b.Detach()
	after, err := b.Catalog().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSeedCoversTemplateCategories(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	categories := []string{"chest", "shoulders", "triceps", "back", "biceps", "quadriceps", "hamstrings", "glutes", "calves"}
	for _, c := range categories {
		for _, et := range types.ExerciseTypes {
			rows, err := b.Catalog().Query(ctx, types.LevelBeginner, c, et)
			require.NoError(t, err)
			assert.NotEmpty(t, rows, "%s/%s", c, et)
		}
	}
}
