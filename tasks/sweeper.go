package tasks

import (
	"context"
	"time"

	"unified-console/config"
	"unified-console/core/store"
	"unified-console/core/utils"

	"github.com/robfig/cron/v3"
)

// Sweeper deletes expired sessions on a cron schedule. Expiry is also
// enforced lazily on read, the sweeper just keeps the table small.
type Sweeper struct {
	sessions store.SessionsStore
	cfg      *config.AppConfig
	logger   *utils.Logger
	cron     *cron.Cron
}

func NewSweeper(sessions store.SessionsStore, cfg *config.AppConfig, logger *utils.Logger) *Sweeper {
	return &Sweeper{sessions: sessions, cfg: cfg, logger: logger}
}

func (s *Sweeper) Start() error {
	if !s.cfg.Sweeper.Enabled {
		s.logger.Printf("session sweeper disabled")
		return nil
	}
	schedule := s.cfg.Sweeper.Schedule
	if schedule == "" {
		schedule = "@every 1h"
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, s.sweep); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Printf("session sweeper started, schedule %q", schedule)
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Errorf("session sweep failed: %v", err)
		return
	}
	if n > 0 {
		s.logger.Printf("session sweep removed %d expired sessions", n)
	}
}
