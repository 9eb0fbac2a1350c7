package controllers_fx

import (
	"go.uber.org/fx"

	"allinbee/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewCafeteriaController),
	fx.Provide(controllers.NewRingTrackingController),
	fx.Provide(controllers.NewAppointmentController),
	fx.Provide(controllers.NewBookController))
