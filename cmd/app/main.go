package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"allinbee/cmd/fx/account_fx"
	"allinbee/cmd/fx/appointment_fx"
	"allinbee/cmd/fx/cafeteria_fx"
	"allinbee/cmd/fx/config_fx"
	"allinbee/cmd/fx/controllers_fx"
	"allinbee/cmd/fx/cron_fx"
	"allinbee/cmd/fx/db_fx"
	"allinbee/cmd/fx/events_fx"
	"allinbee/cmd/fx/logger_fx"
	"allinbee/cmd/fx/memcache_fx"
	"allinbee/cmd/fx/ring_tracking_fx"
	"allinbee/internal/api/controllers"
	"allinbee/internal/auth"
	"allinbee/internal/config"
	"allinbee/internal/infra"
	"allinbee/pkg/middleware"
	"allinbee/pkg/utils"
)

func main() {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config_fx.Module,
		logger_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		events_fx.Module,
		account_fx.Module,
		cafeteria_fx.Module,
		ring_tracking_fx.Module,
		appointment_fx.Module,
		controllers_fx.Module,
		cron_fx.Module,

		fx.Invoke(StartServer),
		fx.Provide(ProvideRouter),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("Starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("Failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type routeControllers struct {
	fx.In

	Account      *controllers.AccountController
	Cafeteria    *controllers.CafeteriaController
	RingTracking *controllers.RingTrackingController
	Appointment  *controllers.AppointmentController
	Book         *controllers.BookController
}

func ProvideRouter(
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	tokens *utils.JWTManager,
	resolver middleware.IdentityResolver,
	ctrl routeControllers) *gin.Engine {

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		if err := infra.PingDatabase(c.Request.Context(), db); err != nil {
			utils.RespondError(c, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		utils.RespondSuccess(c, nil, "ok")
	})

	RegisterRoutes(r, middleware.JWTAuthMiddleware(tokens, resolver), ctrl)

	return r
}

func RegisterRoutes(r *gin.Engine, authn gin.HandlerFunc, ctrl routeControllers) {
	// guarded returns a sub-group that authenticates and requires min.
	guarded := func(g *gin.RouterGroup, min auth.Role) *gin.RouterGroup {
		return g.Group("", authn, middleware.RequireRole(min))
	}

	users := r.Group("/users")
	users.POST("/register", ctrl.Account.Register)
	users.POST("/login", ctrl.Account.Login)
	{
		me := guarded(users, auth.RoleAuthenticated)
		me.GET("/me", ctrl.Account.Me)
		me.GET("/staff", ctrl.Account.ListStaff)

		admin := guarded(users, auth.RoleAdmin)
		admin.GET("", ctrl.Account.ListUsers)
		admin.POST("", ctrl.Account.CreateUser)
		admin.GET("/:id", ctrl.Account.GetUser)
		admin.PATCH("/:id", ctrl.Account.UpdateUser)
		admin.DELETE("/:id", ctrl.Account.DeleteUser)
	}

	cafeteria := r.Group("/cafeteria")
	cafeteria.GET("/menus", ctrl.Cafeteria.ListMenus)
	cafeteria.GET("/menus/:id", ctrl.Cafeteria.GetMenu)
	cafeteria.GET("/dishes", ctrl.Cafeteria.ListDishes)
	{
		member := guarded(cafeteria, auth.RoleAuthenticated)
		member.GET("/card", ctrl.Cafeteria.GetMyDigitalCard)
		member.POST("/card/deposits", ctrl.Cafeteria.RecordDeposit)
		member.POST("/qr-codes", ctrl.Cafeteria.GeneratePaymentQRCode)

		staff := guarded(cafeteria, auth.RoleStaff)
		staff.POST("/payments", ctrl.Cafeteria.ProcessQRCodePayment)
		staff.POST("/menus", ctrl.Cafeteria.CreateMenu)
		staff.PATCH("/menus/:id", ctrl.Cafeteria.UpdateMenu)
		staff.DELETE("/menus/:id", ctrl.Cafeteria.DeleteMenu)
		staff.POST("/dishes", ctrl.Cafeteria.CreateDish)
		staff.PATCH("/dishes/:id", ctrl.Cafeteria.UpdateDish)
		staff.DELETE("/dishes/:id", ctrl.Cafeteria.DeleteDish)
		staff.GET("/sales", ctrl.Cafeteria.ListSales)
		staff.GET("/sales/export", ctrl.Cafeteria.ExportSalesReport)
	}

	ring := r.Group("/ring-tracking")
	ring.GET("/routes", ctrl.RingTracking.ListRoutes)
	ring.GET("/routes/:id", ctrl.RingTracking.GetRoute)
	ring.GET("/stations", ctrl.RingTracking.ListStations)
	{
		member := guarded(ring, auth.RoleAuthenticated)
		member.GET("/favorites", ctrl.RingTracking.ListFavoriteRoutes)
		member.PUT("/favorites/:id", ctrl.RingTracking.AddFavoriteRoute)
		member.DELETE("/favorites/:id", ctrl.RingTracking.RemoveFavoriteRoute)

		admin := guarded(ring, auth.RoleAdmin)
		admin.POST("/routes", ctrl.RingTracking.CreateRoute)
		admin.PATCH("/routes/:id", ctrl.RingTracking.UpdateRoute)
		admin.DELETE("/routes/:id", ctrl.RingTracking.DeleteRoute)
		admin.PUT("/routes/:id/stations", ctrl.RingTracking.UpdateRouteStations)
		admin.PUT("/routes/:id/departure-times", ctrl.RingTracking.UpdateRouteDepartureTimes)
		admin.PUT("/routes/:id/buses", ctrl.RingTracking.UpdateRouteBuses)
		admin.POST("/stations", ctrl.RingTracking.CreateStation)
		admin.PATCH("/stations/:id", ctrl.RingTracking.UpdateStation)
		admin.DELETE("/stations/:id", ctrl.RingTracking.DeleteStation)
		admin.GET("/buses", ctrl.RingTracking.ListBuses)
		admin.POST("/buses", ctrl.RingTracking.CreateBus)
		admin.PATCH("/buses/:id", ctrl.RingTracking.UpdateBus)
		admin.DELETE("/buses/:id", ctrl.RingTracking.DeleteBus)
	}

	appointments := r.Group("/appointments")
	{
		member := guarded(appointments, auth.RoleAuthenticated)
		member.POST("", ctrl.Appointment.CreateAppointment)
		member.GET("/me", ctrl.Appointment.ListMyAppointments)
		member.GET("/:id", ctrl.Appointment.GetAppointment)
		member.PATCH("/:id", ctrl.Appointment.UpdateAppointment)
		member.POST("/:id/cancel", ctrl.Appointment.CancelAppointment)

		staff := guarded(appointments, auth.RoleStaff)
		staff.POST("/:id/return", ctrl.Appointment.ReturnBooks)

		admin := guarded(appointments, auth.RoleAdmin)
		admin.GET("", ctrl.Appointment.AdminListAllAppointments)
	}

	books := r.Group("/books")
	books.GET("", ctrl.Book.ListBooks)
	books.GET("/:isbn", ctrl.Book.GetBook)
	{
		staff := guarded(books, auth.RoleStaff)
		staff.POST("", ctrl.Book.CreateBook)
		staff.PATCH("/:isbn", ctrl.Book.UpdateBook)
		staff.DELETE("/:isbn", ctrl.Book.DeleteBook)
	}
}
