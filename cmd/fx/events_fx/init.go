package events_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"allinbee/internal/config"
	"allinbee/internal/events"
)

var Module = fx.Provide(providePublisher)

func providePublisher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) events.Publisher {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, domain events are dropped")
		return events.NoopPublisher{}
	}

	publisher := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventsExchange, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}
