// Package cleanup reconciles sessions left in progress: stale sessions are
// cancelled and sessions that already carry a completion time are completed.
// Corrections are logged, never returned as errors.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Default staleness thresholds.
const (
	DefaultPreSessionStale = time.Hour
	DefaultSweepStale      = 24 * time.Hour
)

// Correction reasons.
const (
	ReasonStale        = "stale"
	ReasonInconsistent = "inconsistent"
)

// Settings holds the staleness thresholds of both modes.
type Settings struct {
	PreSessionStale time.Duration
	SweepStale      time.Duration
}

// DefaultSettings returns one hour before a new session and 24 hours for the
// periodic sweep.
func DefaultSettings() Settings {
	return Settings{PreSessionStale: DefaultPreSessionStale, SweepStale: DefaultSweepStale}
}

// Validate checks the thresholds.
func (s Settings) Validate() error {
	var errs []error
	if s.PreSessionStale <= 0 {
		errs = append(errs, fmt.Errorf("pre-session threshold %s must be positive", s.PreSessionStale))
	}
	if s.SweepStale <= 0 {
		errs = append(errs, fmt.Errorf("sweep threshold %s must be positive", s.SweepStale))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", types.ErrValidation, err)
	}
	return nil
}

// Correction is one session changed by a run.
type Correction struct {
	SessionID string              `json:"session_id"`
	OwnerID   string              `json:"owner_id"`
	To        types.SessionStatus `json:"to"`
	Reason    string              `json:"reason"`
}

// Report summarizes a run.
type Report struct {
	Scanned     int          `json:"scanned"`
	Cancelled   int          `json:"cancelled"`
	Completed   int          `json:"completed"`
	Corrections []Correction `json:"corrections,omitempty"`
}

// Changed is the number of sessions the run modified.
func (r *Report) Changed() int {
	return r.Cancelled + r.Completed
}

// TerminalHook runs inside the unit of work that made a session terminal.
type TerminalHook func(ctx context.Context, tx types.Tables, s *types.ScheduledSession) error

// Service runs cleanup against a store.
type Service struct {
	store    types.Store
	settings Settings
	hook     TerminalHook
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewService creates a Service. hook may be nil. A nil logger uses
// slog.Default().
func NewService(store types.Store, settings Settings, hook TerminalHook, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		settings: settings,
		hook:     hook,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// PreSession reconciles the owner's in-progress sessions with the short
// threshold. It runs right before the owner starts a new session.
func (s *Service) PreSession(ctx context.Context, ownerID string) (*Report, error) {
	if ownerID == "" {
		return nil, types.ErrOwnerEmpty
	}
	return s.run(ctx, ownerID, s.settings.PreSessionStale)
}

// Sweep reconciles in-progress sessions of every owner with the long
// threshold.
func (s *Service) Sweep(ctx context.Context) (*Report, error) {
	return s.run(ctx, "", s.settings.SweepStale)
}

func (s *Service) run(ctx context.Context, ownerID string, stale time.Duration) (*Report, error) {
	var candidates []types.ScheduledSession
	err := s.store.View(ctx, func(tx types.Tables) error {
		var err error
		candidates, err = tx.Sessions().ListInProgress(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing in-progress sessions: %w", err)
	}

	report := &Report{Scanned: len(candidates)}
	var errs []error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		corr, err := s.reconcile(ctx, c.SessionID, stale)
		if err != nil {
			s.logger.Warn("cleanup failed",
				slog.String("session", c.SessionID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		if corr == nil {
			continue
		}
		report.Corrections = append(report.Corrections, *corr)
		if corr.To == types.SessionCancelled {
			report.Cancelled++
		} else {
			report.Completed++
		}
	}
	return report, errors.Join(errs...)
}

// reconcile re-reads the session inside its own unit of work so concurrent
// activity since the scan is respected.
func (s *Service) reconcile(ctx context.Context, sessionID string, stale time.Duration) (*Correction, error) {
	var corr *Correction
	err := s.store.Update(ctx, func(tx types.Tables) error {
		sess, err := tx.Sessions().Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != types.SessionInProgress {
			return nil
		}

		now := s.nowFunc().UTC()
		switch {
		case sess.CompletedAt != nil:
			completedAt := *sess.CompletedAt
			if err := sess.Finish(now); err != nil {
				return err
			}
			sess.CompletedAt = &completedAt
			corr = &Correction{To: types.SessionCompleted, Reason: ReasonInconsistent}
		case now.Sub(sess.LastActivity()) >= stale:
			if err := sess.Cancel(now); err != nil {
				return err
			}
			corr = &Correction{To: types.SessionCancelled, Reason: ReasonStale}
		default:
			return nil
		}
		corr.SessionID, corr.OwnerID = sess.SessionID, sess.OwnerID

		entries, err := tx.Assignments().ListBySession(ctx, sess.SessionID)
		if err != nil {
			return err
		}
		for i := range entries {
			if entries[i].Close(sess.Status) {
				if err := tx.Assignments().Put(ctx, &entries[i]); err != nil {
					return err
				}
			}
		}
		if err := tx.Sessions().Put(ctx, sess); err != nil {
			return err
		}
		if s.hook != nil {
			return s.hook(ctx, tx, sess)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if corr != nil {
		s.logger.Info("session corrected",
			slog.String("owner", corr.OwnerID),
			slog.String("session", corr.SessionID),
			slog.String("status", string(corr.To)),
			slog.String("reason", corr.Reason),
		)
	}
	return corr, nil
}
