package response_models

import (
	"github.com/google/uuid"

	"allinbee/internal/models/db_models"
)

type StationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

func NewStationResponse(s *db_models.Station) StationResponse {
	return StationResponse{ID: s.ID, Name: s.Name, Latitude: s.Latitude, Longitude: s.Longitude}
}

type RouteStopResponse struct {
	StopOrder int             `json:"stop_order"`
	Station   StationResponse `json:"station"`
}

type BusResponse struct {
	ID          uuid.UUID `json:"id"`
	PlateNumber string    `json:"plate_number"`
	Capacity    int       `json:"capacity"`
}

func NewBusResponse(b *db_models.Bus) BusResponse {
	return BusResponse{ID: b.ID, PlateNumber: b.PlateNumber, Capacity: b.Capacity}
}

type RouteResponse struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Color          string              `json:"color"`
	Stops          []RouteStopResponse `json:"stops"`
	DepartureTimes []string            `json:"departure_times"`
	BusIDs         []uuid.UUID         `json:"bus_ids"`
	IsFavorite     bool                `json:"is_favorite,omitempty"`
}

// NewRouteResponse expects stations and departure times already ordered.
func NewRouteResponse(r *db_models.Route) RouteResponse {
	resp := RouteResponse{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Color:          r.Color,
		Stops:          make([]RouteStopResponse, 0, len(r.Stations)),
		DepartureTimes: make([]string, 0, len(r.DepartureTimes)),
		BusIDs:         make([]uuid.UUID, 0, len(r.Buses)),
	}
	for _, rs := range r.Stations {
		stop := RouteStopResponse{StopOrder: rs.StopOrder}
		if rs.Station != nil {
			stop.Station = NewStationResponse(rs.Station)
		} else {
			stop.Station = StationResponse{ID: rs.StationID}
		}
		resp.Stops = append(resp.Stops, stop)
	}
	for _, dt := range r.DepartureTimes {
		resp.DepartureTimes = append(resp.DepartureTimes, dt.DepartureTime)
	}
	for _, b := range r.Buses {
		resp.BusIDs = append(resp.BusIDs, b.BusID)
	}
	return resp
}
