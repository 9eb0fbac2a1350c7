package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type QRCodePurger interface {
	PurgeExpiredQRCodes(ctx context.Context, retention time.Duration) (int64, error)
}

// Sweeper is implemented by in-process caches that need expired entries dropped.
type Sweeper interface {
	Sweep() int
}

func PurgeQRCodesJob(spec string, purger QRCodePurger, retention time.Duration, log *zap.Logger) Job {
	return Job{
		Name: "purge-expired-qr-codes",
		Spec: spec,
		Run: func(ctx context.Context) error {
			n, err := purger.PurgeExpiredQRCodes(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info("Purged expired QR codes", zap.Int64("count", n))
			}
			return nil
		},
	}
}

func SweepCacheJob(spec string, sweeper Sweeper, log *zap.Logger) Job {
	return Job{
		Name: "sweep-cache",
		Spec: spec,
		Run: func(context.Context) error {
			if n := sweeper.Sweep(); n > 0 {
				log.Debug("Swept cache entries", zap.Int("count", n))
			}
			return nil
		},
	}
}
