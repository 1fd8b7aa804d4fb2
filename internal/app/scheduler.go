package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
)

// StartSessionSweeper schedules eviction of idle wizard sessions using the
// configured cron spec (default "@every 5m").
func (a *App) StartSessionSweeper() error {
	schedule := a.Config.Session.SweepSchedule
	if schedule == "" {
		schedule = "@every 5m"
	}
	ttl := a.Config.Session.GetTTL()

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		sweepSessions(a.Sessions, ttl, a.Logger)
	}); err != nil {
		return fmt.Errorf("invalid session sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	a.sweeper = c

	a.Logger.Info().Str("schedule", schedule).Dur("ttl", ttl).Msg("Session sweeper: started")
	return nil
}

func sweepSessions(store interfaces.SessionStore, ttl time.Duration, logger *common.Logger) {
	start := time.Now()

	removed, err := store.Sweep(ttl)
	if err != nil {
		logger.Warn().Err(err).Msg("Session sweep: failed")
		return
	}

	logger.Debug().
		Int("removed", removed).
		Int("live", store.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Session sweep: complete")
}
