package infra

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"allinbee/internal/config"
	"allinbee/internal/models/db_models"
)

// OpenDatabase connects to Postgres and configures the pool. Unique
// violations are translated to gorm.ErrDuplicatedKey.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		log.Error("Error connecting to database", zap.Error(err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates every table of the schema.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&db_models.Menu{}, "Dishes", &db_models.MenuDish{}); err != nil {
		return err
	}

	return db.AutoMigrate(
		&db_models.User{},
		&db_models.Admin{},
		&db_models.Student{},
		&db_models.Staff{},
		&db_models.DigitalCard{},
		&db_models.Dish{},
		&db_models.Menu{},
		&db_models.MenuDish{},
		&db_models.QRCode{},
		&db_models.Sale{},
		&db_models.Station{},
		&db_models.Route{},
		&db_models.RouteStation{},
		&db_models.RouteDepartureTime{},
		&db_models.Bus{},
		&db_models.BusDrivesRoute{},
		&db_models.UserFavoriteRoute{},
		&db_models.Book{},
		&db_models.Appointment{},
		&db_models.SportAppointment{},
		&db_models.HealthAppointment{},
		&db_models.BookBorrowRecord{},
	)
}

func PingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func CloseDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("Error getting database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Error("Error closing database connection", zap.Error(err))
	} else {
		log.Info("Database connection closed successfully")
	}
}
