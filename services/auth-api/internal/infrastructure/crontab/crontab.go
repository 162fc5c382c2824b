// Package crontab schedules the periodic maintenance jobs of the auth-api.
package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"chatter-server/services/auth-api/internal/domain/user"
)

const jobTimeout = 30 * time.Second

// Crontab runs the expiry sweeps on a schedule.
type Crontab struct {
	ctab *crontab.Crontab
	svc  *user.Service
	log  zerolog.Logger
}

// NewCrontab creates the scheduler.
func NewCrontab(svc *user.Service, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab: crontab.New(),
		svc:  svc,
		log:  log.With().Str("component", "crontab").Logger(),
	}
}

// Run executes one sweep immediately, schedules the minutely job and blocks
// until the context is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	c.sweep()

	if err := c.ctab.AddJob("* * * * *", c.sweep); err != nil {
		return fmt.Errorf("schedule expiry sweep: %w", err)
	}
	c.log.Info().Msg("expiry sweep scheduled: every minute")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) sweep() {
	jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	c.svc.Sweep(jobCtx)
}
