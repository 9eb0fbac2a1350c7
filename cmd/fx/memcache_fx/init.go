package memcache_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"allinbee/internal/config"
	"allinbee/internal/infra"
	mem "allinbee/pkg/memcache"
)

const redisKeyPrefix = "allinbee:"

var Module = fx.Provide(provideCacheStore)

// provideCacheStore prefers Redis, falls back to a process-local store and
// disables caching entirely when CACHE_ENABLED is false.
func provideCacheStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) mem.Store {
	if !cfg.CacheEnabled {
		log.Info("Cache disabled")
		return mem.NoopStore{}
	}

	client := infra.NewRedisClient(cfg, log)
	if client == nil {
		log.Info("Using in-memory cache")
		return mem.NewMemoryStore()
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	log.Info("Using redis cache", zap.String("addr", cfg.RedisAddr))
	return mem.NewRedisStore(client, redisKeyPrefix)
}
