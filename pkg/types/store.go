package types

import "context"

// Store is the persistence collaborator. Callers attach to a backend, run
// units of work, and detach when done.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Returns ErrStoreAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// Update runs fn inside a single read-write transaction. Every write made
	// through the Tables passed to fn commits together, or none does when fn
	// returns an error.
	Update(ctx context.Context, fn func(Tables) error) error

	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(Tables) error) error
}
