package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"allinbee/internal/models/request_models"
	"allinbee/internal/services"
	"allinbee/pkg/utils"
)

type RingTrackingController struct {
	ringService services.RingTrackingServiceInterface
}

func NewRingTrackingController(ringService services.RingTrackingServiceInterface) *RingTrackingController {
	return &RingTrackingController{
		ringService: ringService,
	}
}

// ListRoutes godoc
// @Summary List ring bus routes
// @Description Routes with their ordered stations, departure times and buses
// @Tags RingTracking
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.RouteResponse}
// @Router /ring-tracking/routes [get]
func (rc *RingTrackingController) ListRoutes(c *gin.Context) {
	routes, err := rc.ringService.ListRoutes(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, routes, "Routes fetched successfully")
}

// GetRoute godoc
// @Summary Get a route
// @Tags RingTracking
// @Produce json
// @Param id path string true "Route ID"
// @Success 200 {object} utils.APIResponse{data=response_models.RouteResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /ring-tracking/routes/{id} [get]
func (rc *RingTrackingController) GetRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	route, err := rc.ringService.GetRoute(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, route, "Route fetched successfully")
}

// CreateRoute godoc
// @Summary Create a route
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param request body request_models.CreateRouteRequest true "Route"
// @Success 201 {object} utils.APIResponse{data=response_models.RouteResponse}
// @Security BearerAuth
// @Router /ring-tracking/routes [post]
func (rc *RingTrackingController) CreateRoute(c *gin.Context) {
	var req request_models.CreateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := rc.ringService.CreateRoute(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, route, "Route created successfully")
}

// UpdateRoute godoc
// @Summary Update a route
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param id path string true "Route ID"
// @Param request body request_models.UpdateRouteRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.RouteResponse}
// @Security BearerAuth
// @Router /ring-tracking/routes/{id} [patch]
func (rc *RingTrackingController) UpdateRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := rc.ringService.UpdateRoute(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, route, "Route updated successfully")
}

// DeleteRoute godoc
// @Summary Delete a route
// @Tags RingTracking
// @Param id path string true "Route ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /ring-tracking/routes/{id} [delete]
func (rc *RingTrackingController) DeleteRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := rc.ringService.DeleteRoute(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Route deleted successfully")
}

// UpdateRouteStations godoc
// @Summary Replace the stations of a route
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param id path string true "Route ID"
// @Param request body request_models.UpdateRouteStationsRequest true "Ordered stops"
// @Success 200 {object} utils.APIResponse{data=response_models.RouteResponse}
// @Security BearerAuth
// @Router /ring-tracking/routes/{id}/stations [put]
func (rc *RingTrackingController) UpdateRouteStations(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateRouteStationsRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := rc.ringService.UpdateRouteStations(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, route, "Route stations updated successfully")
}

// UpdateRouteDepartureTimes godoc
// @Summary Replace the departure times of a route
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param id path string true "Route ID"
// @Param request body request_models.UpdateDepartureTimesRequest true "Times as HH:MM"
// @Success 200 {object} utils.APIResponse{data=response_models.RouteResponse}
// @Security BearerAuth
// @Router /ring-tracking/routes/{id}/departure-times [put]
func (rc *RingTrackingController) UpdateRouteDepartureTimes(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateDepartureTimesRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := rc.ringService.UpdateRouteDepartureTimes(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, route, "Departure times updated successfully")
}

// UpdateRouteBuses godoc
// @Summary Replace the buses serving a route
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param id path string true "Route ID"
// @Param request body request_models.UpdateRouteBusesRequest true "Bus IDs"
// @Success 200 {object} utils.APIResponse{data=response_models.RouteResponse}
// @Security BearerAuth
// @Router /ring-tracking/routes/{id}/buses [put]
func (rc *RingTrackingController) UpdateRouteBuses(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateRouteBusesRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := rc.ringService.UpdateRouteBuses(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, route, "Route buses updated successfully")
}

// ListStations godoc
// @Summary List stations
// @Tags RingTracking
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.StationResponse}
// @Router /ring-tracking/stations [get]
func (rc *RingTrackingController) ListStations(c *gin.Context) {
	stations, err := rc.ringService.ListStations(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, stations, "Stations fetched successfully")
}

// CreateStation godoc
// @Summary Create a station
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param request body request_models.CreateStationRequest true "Station"
// @Success 201 {object} utils.APIResponse{data=response_models.StationResponse}
// @Security BearerAuth
// @Router /ring-tracking/stations [post]
func (rc *RingTrackingController) CreateStation(c *gin.Context) {
	var req request_models.CreateStationRequest
	if !bindJSON(c, &req) {
		return
	}

	station, err := rc.ringService.CreateStation(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, station, "Station created successfully")
}

// UpdateStation godoc
// @Summary Update a station
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param id path string true "Station ID"
// @Param request body request_models.UpdateStationRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.StationResponse}
// @Security BearerAuth
// @Router /ring-tracking/stations/{id} [patch]
func (rc *RingTrackingController) UpdateStation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateStationRequest
	if !bindJSON(c, &req) {
		return
	}

	station, err := rc.ringService.UpdateStation(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, station, "Station updated successfully")
}

// DeleteStation godoc
// @Summary Delete a station
// @Tags RingTracking
// @Param id path string true "Station ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /ring-tracking/stations/{id} [delete]
func (rc *RingTrackingController) DeleteStation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := rc.ringService.DeleteStation(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Station deleted successfully")
}

// ListBuses godoc
// @Summary List buses
// @Tags RingTracking
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.BusResponse}
// @Security BearerAuth
// @Router /ring-tracking/buses [get]
func (rc *RingTrackingController) ListBuses(c *gin.Context) {
	buses, err := rc.ringService.ListBuses(c.Request.Context(), caller(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, buses, "Buses fetched successfully")
}

// CreateBus godoc
// @Summary Register a bus
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param request body request_models.CreateBusRequest true "Bus"
// @Success 201 {object} utils.APIResponse{data=response_models.BusResponse}
// @Security BearerAuth
// @Router /ring-tracking/buses [post]
func (rc *RingTrackingController) CreateBus(c *gin.Context) {
	var req request_models.CreateBusRequest
	if !bindJSON(c, &req) {
		return
	}

	bus, err := rc.ringService.CreateBus(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, bus, "Bus created successfully")
}

// UpdateBus godoc
// @Summary Update a bus
// @Tags RingTracking
// @Accept json
// @Produce json
// @Param id path string true "Bus ID"
// @Param request body request_models.UpdateBusRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.BusResponse}
// @Security BearerAuth
// @Router /ring-tracking/buses/{id} [patch]
func (rc *RingTrackingController) UpdateBus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateBusRequest
	if !bindJSON(c, &req) {
		return
	}

	bus, err := rc.ringService.UpdateBus(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, bus, "Bus updated successfully")
}

// DeleteBus godoc
// @Summary Delete a bus
// @Tags RingTracking
// @Param id path string true "Bus ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /ring-tracking/buses/{id} [delete]
func (rc *RingTrackingController) DeleteBus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := rc.ringService.DeleteBus(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Bus deleted successfully")
}

// ListFavoriteRoutes godoc
// @Summary My favorite routes
// @Tags RingTracking
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.RouteResponse}
// @Security BearerAuth
// @Router /ring-tracking/favorites [get]
func (rc *RingTrackingController) ListFavoriteRoutes(c *gin.Context) {
	routes, err := rc.ringService.ListFavoriteRoutes(c.Request.Context(), caller(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, routes, "Favorite routes fetched successfully")
}

// AddFavoriteRoute godoc
// @Summary Mark a route as favorite
// @Tags RingTracking
// @Param id path string true "Route ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /ring-tracking/favorites/{id} [put]
func (rc *RingTrackingController) AddFavoriteRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := rc.ringService.AddFavoriteRoute(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Route added to favorites")
}

// RemoveFavoriteRoute godoc
// @Summary Unmark a favorite route
// @Tags RingTracking
// @Param id path string true "Route ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /ring-tracking/favorites/{id} [delete]
func (rc *RingTrackingController) RemoveFavoriteRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := rc.ringService.RemoveFavoriteRoute(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Route removed from favorites")
}
