package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const exerciseColumns = `exercise_id, name, level, category, exercise_type, default_sets,
	default_rep_range, default_rest_seconds, recommended_order`

// Catalog implements types.ExerciseRepository over the exercises table. It
// reads through its own pool so it can be queried while a unit of work holds
// the writer connection.
type Catalog struct {
	db *sql.DB
}

// Query returns exercises at or below level. An empty category or type
// matches every value.
func (c *Catalog) Query(ctx context.Context, level types.Level, category string, exerciseType types.ExerciseType) ([]types.Exercise, error) {
	levels := level.AtOrBelow()
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidLevel, level)
	}

	var (
		where []string
		args  []any
	)
	where = append(where, "level IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(levels)), ", ")+")")
	for _, l := range levels {
		args = append(args, string(l))
	}
	if category != "" {
		where = append(where, "category = ? COLLATE NOCASE")
		args = append(args, category)
	}
	if exerciseType != "" {
		where = append(where, "exercise_type = ?")
		args = append(args, string(exerciseType))
	}

	query := "SELECT " + exerciseColumns + " FROM exercises WHERE " + strings.Join(where, " AND ") +
		" ORDER BY recommended_order, exercise_id"
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var out []types.Exercise
	for rows.Next() {
		var (
			e           types.Exercise
			lvl, exType string
		)
		if err := rows.Scan(&e.ExerciseID, &e.Name, &lvl, &e.Category, &exType, &e.DefaultSets,
			&e.DefaultRepRange, &e.DefaultRestSeconds, &e.RecommendedOrder); err != nil {
			return nil, err
		}
		e.Level = types.Level(lvl)
		e.Type = types.ExerciseType(exType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of catalog entries.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exercises: %w", err)
	}
	return n, nil
}
