package cleanup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron"
)

// DefaultSchedule runs the sweep once an hour.
const DefaultSchedule = "@every 1h"

// Scheduler runs Sweep on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	logger  *slog.Logger
}

// NewScheduler registers the sweep under spec, a robfig/cron expression or
// descriptor such as "@every 30m".
func NewScheduler(service *Service, spec string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if spec == "" {
		spec = DefaultSchedule
	}
	s := &Scheduler{cron: cron.New(), service: service, logger: logger}
	if err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running sweeps in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts future sweeps. A sweep already running finishes on its own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	report, err := s.service.Sweep(context.Background())
	if err != nil {
		s.logger.Error("cleanup sweep failed", slog.String("error", err.Error()))
	}
	if report != nil {
		s.logger.Info("cleanup sweep finished",
			slog.Int("scanned", report.Scanned),
			slog.Int("cancelled", report.Cancelled),
			slog.Int("completed", report.Completed),
		)
	}
}
