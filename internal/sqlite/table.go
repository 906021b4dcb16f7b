package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// tables implements types.Tables over one transaction.
type tables struct {
	tx *sql.Tx
}

func (t *tables) Plans() types.PlanTable { return &planTable{tx: t.tx} }
func (t *tables) Cycles() types.CycleTable { return &cycleTable{tx: t.tx} }
func (t *tables) Sessions() types.SessionTable { return &sessionTable{tx: t.tx} }
func (t *tables) Assignments() types.AssignmentTable { return &assignmentTable{tx: t.tx} }
func (t *tables) SetLogs() types.SetLogTable { return &setLogTable{tx: t.tx} }
func (t *tables) Progression() types.ProgressionTableAccess { return &progressionTable{tx: t.tx} }
func (t *tables) Adaptation() types.AdaptationTable { return &adaptationTable{tx: t.tx} }

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func encodeStrings(v []string) (string, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return v, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

// notFound maps sql.ErrNoRows to the given sentinel.
func notFound(err error, sentinel error, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}
