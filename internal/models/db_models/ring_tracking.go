package db_models

import "github.com/google/uuid"

type Route struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	Color       string `gorm:"size:16" json:"color"`

	Stations       []RouteStation       `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE" json:"stations"`
	DepartureTimes []RouteDepartureTime `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE" json:"departure_times"`
	Buses          []BusDrivesRoute     `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE" json:"buses"`
}

type Station struct {
	BaseModel
	Name      string  `gorm:"uniqueIndex;not null" json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RouteStation places a station on a route. StopOrder is unique per route.
type RouteStation struct {
	BaseModel
	RouteID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_route_stop_order" json:"route_id"`
	StationID uuid.UUID `gorm:"type:uuid;not null;index" json:"station_id"`
	StopOrder int       `gorm:"not null;uniqueIndex:idx_route_stop_order" json:"stop_order"`

	Station *Station `gorm:"foreignKey:StationID;constraint:OnDelete:RESTRICT" json:"station,omitempty"`
}

type RouteDepartureTime struct {
	BaseModel
	RouteID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_route_departure" json:"route_id"`
	DepartureTime string    `gorm:"size:5;not null;uniqueIndex:idx_route_departure" json:"departure_time"` // HH:MM
}

type Bus struct {
	BaseModel
	PlateNumber string `gorm:"uniqueIndex;not null" json:"plate_number"`
	Capacity    int    `json:"capacity"`

	Routes []BusDrivesRoute `gorm:"foreignKey:BusID;constraint:OnDelete:CASCADE" json:"-"`
}

type BusDrivesRoute struct {
	BusID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"bus_id"`
	RouteID uuid.UUID `gorm:"type:uuid;primaryKey" json:"route_id"`
}

// UserFavoriteRoute is a soft toggle: removing a favorite flips IsFavorite.
type UserFavoriteRoute struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RouteID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"route_id"`
	IsFavorite bool      `gorm:"not null" json:"is_favorite"`
	UpdatedAt  int64     `gorm:"autoUpdateTime" json:"updated_at"`

	Route *Route `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE" json:"route,omitempty"`
}
