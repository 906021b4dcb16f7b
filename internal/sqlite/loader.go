package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// CatalogFile is the optional exercise catalog in the data directory.
const CatalogFile = "exercises.jsonl"

const sqlInsertExercise = `INSERT INTO exercises (` + exerciseColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(exercise_id) DO NOTHING`

// loadCatalog fills an empty exercises table from dataDir/exercises.jsonl,
// or from the embedded seed when that file does not exist. A populated
// table is left alone. Malformed or invalid lines are skipped.
func loadCatalog(ctx context.Context, db *sql.DB, dataDir string, logger *slog.Logger) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&n); err != nil {
		return fmt.Errorf("counting exercises: %w", err)
	}
	if n > 0 {
		return nil
	}

	source := filepath.Join(dataDir, CatalogFile)
	records, err := readJSONL(source)
	switch {
	case errors.Is(err, os.ErrNotExist):
		source = "embedded seed"
		records, err = parseJSONL(bytes.NewReader(seedCatalog))
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning catalog load: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqlInsertExercise)
	if err != nil {
		return fmt.Errorf("preparing catalog insert: %w", err)
	}
	defer stmt.Close()

	loaded, skipped := 0, 0
	for _, rec := range records {
		var e types.Exercise
		if err := json.Unmarshal(rec, &e); err != nil {
			skipped++
			continue
		}
		if err := checkExercise(&e); err != nil {
			logger.Warn("skipping catalog entry", slog.String("exercise_id", e.ExerciseID), slog.String("error", err.Error()))
			skipped++
			continue
		}
		if _, err := stmt.ExecContext(ctx, e.ExerciseID, e.Name, string(e.Level), e.Category, string(e.Type),
			e.DefaultSets, e.DefaultRepRange, e.DefaultRestSeconds, e.RecommendedOrder); err != nil {
			return fmt.Errorf("inserting exercise %s: %w", e.ExerciseID, err)
		}
		loaded++
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog load: %w", err)
	}

	logger.Info("exercise catalog loaded",
		slog.String("source", source),
		slog.Int("loaded", loaded),
		slog.Int("skipped", skipped),
	)
	return nil
}

// checkExercise validates a catalog entry and fills defaults.
func checkExercise(e *types.Exercise) error {
	if e.ExerciseID == "" || e.Name == "" || e.Category == "" {
		return fmt.Errorf("%w: exercise id, name and category are required", types.ErrValidation)
	}
	lvl, err := types.ParseLevel(string(e.Level))
	if err != nil {
		return err
	}
	t, err := types.ParseExerciseType(string(e.Type))
	if err != nil {
		return err
	}
	e.Level, e.Type = lvl, t
	if e.DefaultSets <= 0 {
		e.DefaultSets = 3
	}
	if e.DefaultRestSeconds <= 0 {
		e.DefaultRestSeconds = 90
	}
	return nil
}
