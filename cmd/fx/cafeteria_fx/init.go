package cafeteria_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"allinbee/internal/events"
	"allinbee/internal/repositories"
	"allinbee/internal/services"
)

var Module = fx.Provide(
	provideCafeteriaService, provideCardRepo, provideMenuRepo)

func provideCardRepo(db *gorm.DB) repositories.CardRepository {
	return repositories.NewCardRepository(db)
}

func provideMenuRepo(db *gorm.DB) repositories.MenuRepository {
	return repositories.NewMenuRepository(db)
}

func provideCafeteriaService(cardRepo repositories.CardRepository, menuRepo repositories.MenuRepository, publisher events.Publisher, log *zap.Logger) services.CafeteriaServiceInterface {
	return services.NewCafeteriaService(cardRepo, menuRepo, publisher, log.Named("cafeteria"))
}
