package ring_tracking_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"allinbee/internal/config"
	"allinbee/internal/repositories"
	"allinbee/internal/services"
	mem "allinbee/pkg/memcache"
)

var Module = fx.Provide(
	provideRingTrackingService, provideRingTrackingRepo)

func provideRingTrackingRepo(db *gorm.DB) repositories.RingTrackingRepository {
	return repositories.NewRingTrackingRepository(db)
}

func provideRingTrackingService(repo repositories.RingTrackingRepository, cache mem.Store, cfg *config.Config, log *zap.Logger) services.RingTrackingServiceInterface {
	return services.NewRingTrackingService(repo, cache, cfg.CacheTTL, log.Named("ring"))
}
