package account_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"allinbee/internal/config"
	"allinbee/internal/repositories"
	"allinbee/internal/services"
	"allinbee/pkg/middleware"
	"allinbee/pkg/utils"
)

var Module = fx.Provide(
	provideAccountService, provideAccountRepo, provideJWTManager, provideIdentityResolver)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideJWTManager(cfg *config.Config) *utils.JWTManager {
	return utils.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL)
}

func provideAccountService(accountRepo repositories.AccountRepository, tokens *utils.JWTManager, cfg *config.Config, log *zap.Logger) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, tokens, cfg.BcryptCost, log.Named("account"))
}

func provideIdentityResolver(accountService services.AccountServiceInterface) middleware.IdentityResolver {
	return accountService
}
