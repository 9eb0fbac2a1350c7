package db_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"allinbee/internal/config"
	"allinbee/internal/infra"
)

var Module = fx.Provide(
	provideDB)

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := infra.OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := infra.Migrate(db); err != nil {
			log.Error("Database migration failed", zap.Error(err))
			return nil, err
		}
		log.Info("Database schema migrated")
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return infra.PingDatabase(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			infra.CloseDatabase(db, log)
			return nil
		},
	})
	return db, nil
}
