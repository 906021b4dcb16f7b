// Package sqlite exposes the SQLite store so programs outside this module can
// embed the coach storage.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/cyclecoach/internal/sqlite"
)

// Backend is the SQLite store. It satisfies types.Store and provides the
// exercise catalog through Catalog.
type Backend = sqlite.Backend

// NewBackend creates a detached SQLite backend. A nil logger uses
// slog.Default.
//
// Example:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".cyclecoach",
//	})
//	defer backend.Detach()
func NewBackend(logger *slog.Logger) *Backend {
	return sqlite.NewBackend(logger)
}
