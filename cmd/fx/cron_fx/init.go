package cron_fx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"allinbee/internal/config"
	"allinbee/internal/cron"
	"allinbee/internal/services"
	mem "allinbee/pkg/memcache"
)

const (
	jobTimeout     = 5 * time.Minute
	sweepCacheSpec = "@every 1m"
)

var Module = fx.Invoke(registerJobs)

func registerJobs(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, cafeteria services.CafeteriaServiceInterface, cache mem.Store) error {
	if !cfg.CronEnabled {
		log.Info("Scheduled jobs disabled")
		return nil
	}

	scheduler := cron.NewScheduler(log.Named("cron"), jobTimeout)
	if err := scheduler.Add(cron.PurgeQRCodesJob(cfg.QRPurgeSchedule, cafeteria, cfg.QRRetention, log)); err != nil {
		return err
	}
	// Only the in-process store needs sweeping, Redis expires keys itself.
	if sweeper, ok := cache.(cron.Sweeper); ok {
		if err := scheduler.Add(cron.SweepCacheJob(sweepCacheSpec, sweeper, log)); err != nil {
			return err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
	return nil
}
