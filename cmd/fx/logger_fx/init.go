package logger_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"allinbee/internal/config"
)

var Module = fx.Provide(provideLogger)

// provideLogger also replaces the global logger, which the error envelope
// helpers write to.
func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsDevelopment() {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}
