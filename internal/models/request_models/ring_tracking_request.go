package request_models

import "github.com/google/uuid"

type RouteStopInput struct {
	StationID uuid.UUID `json:"station_id" binding:"required"`
	StopOrder int       `json:"stop_order" binding:"required,gte=1"`
}

type CreateRouteRequest struct {
	Name           string           `json:"name" binding:"required,max=100"`
	Description    string           `json:"description" binding:"max=1000"`
	Color          string           `json:"color" binding:"omitempty,max=16"`
	Stations       []RouteStopInput `json:"stations" binding:"omitempty,dive"`
	DepartureTimes []string         `json:"departure_times" binding:"omitempty,dive,required"`
}

type UpdateRouteRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Color       *string `json:"color" binding:"omitempty,max=16"`
}

// UpdateRouteStationsRequest replaces every stop of a route. An empty list
// clears the route.
type UpdateRouteStationsRequest struct {
	Stations []RouteStopInput `json:"stations" binding:"required,dive"`
}

type UpdateDepartureTimesRequest struct {
	DepartureTimes []string `json:"departure_times" binding:"required,dive,required"`
}

type UpdateRouteBusesRequest struct {
	BusIDs []uuid.UUID `json:"bus_ids" binding:"required,dive,required"`
}

type CreateStationRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
}

type UpdateStationRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

type CreateBusRequest struct {
	PlateNumber string `json:"plate_number" binding:"required,max=32"`
	Capacity    int    `json:"capacity" binding:"gte=0"`
}

type UpdateBusRequest struct {
	PlateNumber *string `json:"plate_number" binding:"omitempty,min=1,max=32"`
	Capacity    *int    `json:"capacity" binding:"omitempty,gte=0"`
}
