package service

import (
	"context"
	"time"

	"github.com/clovalink/clovalink-server/internal/logger"
)

// Sweeper periodically reaps used capability links and purges stale audit
// records. The same work is reachable through the maintenance endpoints;
// the sweeper just keeps it running when no external scheduler is wired.
type Sweeper struct {
	link          *Link
	activity      *Activity
	interval      time.Duration
	linkRetention time.Duration
	activityTTL   time.Duration
	logger        *logger.Logger
}

func NewSweeper(
	link *Link,
	activity *Activity,
	interval time.Duration,
	linkRetention time.Duration,
	activityTTL time.Duration,
	logger *logger.Logger,
) *Sweeper {
	return &Sweeper{
		link:          link,
		activity:      activity,
		interval:      interval,
		linkRetention: linkRetention,
		activityTTL:   activityTTL,
		logger:        logger,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper: started",
		"interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if _, err := s.link.Sweep(ctx, s.linkRetention); err != nil {
		s.logger.Error("Sweeper: link sweep failed",
			"error", err.Error())
	}
	if _, err := s.activity.Purge(ctx, s.activityTTL); err != nil {
		s.logger.Error("Sweeper: activity purge failed",
			"error", err.Error())
	}
}
