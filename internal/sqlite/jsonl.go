package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// readJSONL reads a JSONL file. Blank and malformed lines are skipped. A
// missing file yields an error matching os.ErrNotExist.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := parseJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func parseJSONL(r io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// writeJSONL atomically writes records to path: temp file, fsync, rename.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func marshalAll[T any](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for i := range items {
		b, err := json.Marshal(items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Export file names.
const (
	ExportPlans       = "plans.jsonl"
	ExportSessions    = "sessions.jsonl"
	ExportAssignments = "assignments.jsonl"
	ExportSetLogs     = "set_logs.jsonl"
	ExportProgression = "progression.jsonl"
)

// ExportSummary reports how many records each export file received.
type ExportSummary struct {
	Dir    string         `json:"dir"`
	Counts map[string]int `json:"counts"`
}

// ExportOwner writes every plan of the owner with its sessions, exercise
// entries and set logs, plus the owner's progression records, as JSONL files
// in dir. Each file is replaced atomically.
func (b *Backend) ExportOwner(ctx context.Context, ownerID, dir string) (*ExportSummary, error) {
	if ownerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	var (
		plans       []types.TrainingPlan
		sessions    []types.ScheduledSession
		assignments []types.ExerciseAssignment
		sets        []types.SetLog
		progression []types.ProgressionRecord
	)
	err := b.View(ctx, func(tx types.Tables) error {
		var err error
		if plans, err = tx.Plans().ListByOwner(ctx, ownerID); err != nil {
			return err
		}
		for _, p := range plans {
			ss, err := tx.Sessions().ListByPlan(ctx, p.PlanID)
			if err != nil {
				return err
			}
			for _, s := range ss {
				as, err := tx.Assignments().ListBySession(ctx, s.SessionID)
				if err != nil {
					return err
				}
				ls, err := tx.SetLogs().ListBySession(ctx, s.SessionID)
				if err != nil {
					return err
				}
				assignments = append(assignments, as...)
				sets = append(sets, ls...)
			}
			sessions = append(sessions, ss...)
		}
		progression, err = tx.Progression().ListByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	summary := &ExportSummary{Dir: dir, Counts: map[string]int{}}
	write := func(name string, records []json.RawMessage, err error) error {
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		if err := writeJSONL(filepath.Join(dir, name), records); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		summary.Counts[name] = len(records)
		return nil
	}

	recs, err := marshalAll(plans)
	if err := write(ExportPlans, recs, err); err != nil {
		return nil, err
	}
	recs, err = marshalAll(sessions)
	if err := write(ExportSessions, recs, err); err != nil {
		return nil, err
	}
	recs, err = marshalAll(assignments)
	if err := write(ExportAssignments, recs, err); err != nil {
		return nil, err
	}
	recs, err = marshalAll(sets)
	if err := write(ExportSetLogs, recs, err); err != nil {
		return nil, err
	}
	recs, err = marshalAll(progression)
	if err := write(ExportProgression, recs, err); err != nil {
		return nil, err
	}
	return summary, nil
}
