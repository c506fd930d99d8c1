package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron"
)

// Schedule refreshes on a cron spec such as "@every 15m" or "0 */5 * * * *".
type Schedule struct {
	spec      string
	refresher Refresher
	logger    *slog.Logger
}

// NewSchedule validates spec and returns a Schedule.
func NewSchedule(spec string, r Refresher, logger *slog.Logger) (*Schedule, error) {
	if _, err := cron.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	return &Schedule{
		spec:      spec,
		refresher: r,
		logger:    logger.With("trigger", "schedule"),
	}, nil
}

// Run fires refreshes until ctx is cancelled.
func (s *Schedule) Run(ctx context.Context) error {
	c := cron.New()
	err := c.AddFunc(s.spec, func() {
		fire(ctx, s.refresher, s.logger)
	})
	if err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}

	s.logger.Info("refresh schedule started", "spec", s.spec)
	c.Start()
	<-ctx.Done()
	c.Stop()
	s.logger.Info("refresh schedule stopped")
	return nil
}
