// Package types defines the training-cycle entities, their state transitions,
// the persistence and exercise catalog contracts, and the error taxonomy
// shared by every cyclecoach component.
package types
