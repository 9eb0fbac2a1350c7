package appointment_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"allinbee/internal/events"
	"allinbee/internal/repositories"
	"allinbee/internal/services"
)

var Module = fx.Provide(
	provideAppointmentService, provideAppointmentRepo,
	provideBookService, provideBookRepo)

func provideAppointmentRepo(db *gorm.DB) repositories.AppointmentRepository {
	return repositories.NewAppointmentRepository(db)
}

func provideBookRepo(db *gorm.DB) repositories.BookRepository {
	return repositories.NewBookRepository(db)
}

func provideAppointmentService(repo repositories.AppointmentRepository, publisher events.Publisher, log *zap.Logger) services.AppointmentServiceInterface {
	return services.NewAppointmentService(repo, publisher, log.Named("appointment"))
}

func provideBookService(repo repositories.BookRepository, log *zap.Logger) services.BookServiceInterface {
	return services.NewBookService(repo, log.Named("book"))
}
