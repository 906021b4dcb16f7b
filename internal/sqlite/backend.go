// Package sqlite implements the SQLite persistence backend for cyclecoach.
// All writes go through one connection so every unit of work is serialized;
// catalog reads use a separate read-only pool.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// DatabaseFile is the database name inside the data directory.
const DatabaseFile = "cyclecoach.db"

const (
	writeDSN = "file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	readDSN  = "file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=query_only(1)"

	readPoolSize = 4
)

// Backend implements types.Store on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	readDB   *sql.DB
	catalog  *Catalog
	logger   *slog.Logger
}

// NewBackend creates a detached backend. A nil logger uses slog.Default().
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

// Attach opens the database in config.DataDir, applies pending migrations
// and loads the exercise catalog. The data directory is created if missing.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrStoreAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", fmt.Sprintf(writeDSN, dbPath))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One writer connection serializes every unit of work.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := runMigrations(ctx, db, b.logger); err != nil {
		db.Close()
		return err
	}
	if err := loadCatalog(ctx, db, dataDir, b.logger); err != nil {
		db.Close()
		return fmt.Errorf("loading exercise catalog: %w", err)
	}

	readDB, err := sql.Open("sqlite", fmt.Sprintf(readDSN, dbPath))
	if err != nil {
		db.Close()
		return fmt.Errorf("opening read pool: %w", err)
	}
	readDB.SetMaxOpenConns(readPoolSize)

	b.db = db
	b.readDB = readDB
	b.config = config
	b.config.DataDir = dataDir
	b.catalog = &Catalog{db: readDB}
	b.attached = true

	b.logger.Debug("store attached", slog.String("path", dbPath))
	return nil
}

// Detach closes both connection pools. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	var firstErr error
	for _, db := range []*sql.DB{b.readDB, b.db} {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.db, b.readDB, b.catalog = nil, nil, nil
	b.attached = false
	return firstErr
}

// DataDir returns the resolved data directory of an attached backend.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// Catalog returns the exercise repository backed by this database, or nil
// when detached.
func (b *Backend) Catalog() *Catalog {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.catalog
}

// Update runs fn in one read-write transaction.
func (b *Backend) Update(ctx context.Context, fn func(types.Tables) error) error {
	return b.run(ctx, true, fn)
}

// View runs fn in one transaction that is always rolled back.
func (b *Backend) View(ctx context.Context, fn func(types.Tables) error) error {
	return b.run(ctx, false, fn)
}

func (b *Backend) run(ctx context.Context, commit bool, fn func(types.Tables) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&tables{tx: tx}); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// timeLayout is fixed-width UTC so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDatePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.DateOnly), Valid: true}
}

func parseDatePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, ns.String)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", ns.String, err)
	}
	return &t, nil
}
