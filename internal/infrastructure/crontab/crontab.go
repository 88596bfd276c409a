package crontab

import (
	"context"
	"errors"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/config"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/metrics"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

const (
	SweepLockName  = "ggpx:lock:upload-sweep"
	CronJobTimeout = 10 * time.Minute // Timeout for each cron job execution
)

// Sweeper reclaims upload authorizations that never became posts.
type Sweeper interface {
	SweepOrphanedUploads(ctx context.Context) (int, error)
}

// Locker runs fn while holding a lock shared across replicas.
type Locker interface {
	WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type Crontab struct {
	ctab    *crontab.Crontab
	cfg     *config.Config
	sweeper Sweeper
	locker  Locker
	log     zerolog.Logger
}

// NewCrontab schedules background jobs. locker may be nil when only one
// replica runs.
func NewCrontab(cfg *config.Config, sweeper Sweeper, locker Locker, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:    crontab.New(),
		cfg:     cfg,
		sweeper: sweeper,
		locker:  locker,
		log:     log.With().Str("component", "crontab").Logger(),
	}
}

// Run registers the jobs and blocks until ctx is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	if !c.cfg.UploadSweepEnabled {
		c.log.Info().Msg("upload sweep disabled")
		<-ctx.Done()
		return nil
	}

	// execute once on server start
	c.runSweep(ctx)

	schedule := c.cfg.UploadSweepSchedule()
	if err := c.ctab.AddJob(schedule, func() {
		c.runSweep(ctx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add upload sweep job")
	}
	c.log.Info().Str("schedule", schedule).Msg("upload sweep scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) runSweep(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, CronJobTimeout)
	defer cancel()

	ran := false
	sweep := func(ctx context.Context) error {
		ran = true
		removed, err := c.sweeper.SweepOrphanedUploads(ctx)
		metrics.RecordOrphanSweep(removed)
		return err
	}

	var err error
	if c.locker == nil {
		err = sweep(ctx)
	} else {
		err = c.locker.WithLock(ctx, SweepLockName, c.cfg.UploadSweepLockExpiry, sweep)
	}

	switch {
	case err == nil:
	case !ran:
		c.log.Debug().Err(err).Msg("upload sweep skipped, lock held elsewhere")
	case errors.Is(err, context.Canceled):
	default:
		c.log.Error().Err(err).Msg("upload sweep failed")
	}
}
