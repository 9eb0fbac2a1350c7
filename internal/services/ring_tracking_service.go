package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"allinbee/internal/auth"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/internal/models/response_models"
	"allinbee/internal/repositories"
	mem "allinbee/pkg/memcache"
	"allinbee/pkg/utils"
)

const (
	ringCachePrefix   = "ring:"
	routesCacheKey    = ringCachePrefix + "routes"
	stationsCacheKey  = ringCachePrefix + "stations"
	routeCacheKeyBase = ringCachePrefix + "route:"
)

type RingTrackingServiceInterface interface {
	ListRoutes(ctx context.Context) ([]response_models.RouteResponse, error)
	GetRoute(ctx context.Context, id uuid.UUID) (*response_models.RouteResponse, error)
	CreateRoute(ctx context.Context, caller auth.Identity, request request_models.CreateRouteRequest) (*response_models.RouteResponse, error)
	UpdateRoute(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateRouteRequest) (*response_models.RouteResponse, error)
	DeleteRoute(ctx context.Context, caller auth.Identity, id uuid.UUID) error
	UpdateRouteStations(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateRouteStationsRequest) (*response_models.RouteResponse, error)
	UpdateRouteDepartureTimes(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateDepartureTimesRequest) (*response_models.RouteResponse, error)
	UpdateRouteBuses(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateRouteBusesRequest) (*response_models.RouteResponse, error)

	ListStations(ctx context.Context) ([]response_models.StationResponse, error)
	CreateStation(ctx context.Context, caller auth.Identity, request request_models.CreateStationRequest) (*response_models.StationResponse, error)
	UpdateStation(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateStationRequest) (*response_models.StationResponse, error)
	DeleteStation(ctx context.Context, caller auth.Identity, id uuid.UUID) error

	ListBuses(ctx context.Context, caller auth.Identity) ([]response_models.BusResponse, error)
	CreateBus(ctx context.Context, caller auth.Identity, request request_models.CreateBusRequest) (*response_models.BusResponse, error)
	UpdateBus(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateBusRequest) (*response_models.BusResponse, error)
	DeleteBus(ctx context.Context, caller auth.Identity, id uuid.UUID) error

	AddFavoriteRoute(ctx context.Context, caller auth.Identity, routeID uuid.UUID) error
	RemoveFavoriteRoute(ctx context.Context, caller auth.Identity, routeID uuid.UUID) error
	ListFavoriteRoutes(ctx context.Context, caller auth.Identity) ([]response_models.RouteResponse, error)
}

type RingTrackingService struct {
	repo     repositories.RingTrackingRepository
	cache    mem.Store
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewRingTrackingService(repo repositories.RingTrackingRepository, cache mem.Store, cacheTTL time.Duration, log *zap.Logger) *RingTrackingService {
	if cache == nil {
		cache = mem.NoopStore{}
	}
	return &RingTrackingService{repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

// cached serves key from the cache or fills it with load. Cache failures
// degrade to a direct read.
func cached[T any](ctx context.Context, s *RingTrackingService, key string, load func() (T, error)) (T, error) {
	var out T
	hit, err := mem.GetJSON(ctx, s.cache, key, &out)
	if err != nil {
		s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return out, nil
	}

	out, err = load()
	if err != nil {
		return out, err
	}
	if err := mem.SetJSON(ctx, s.cache, key, out, s.cacheTTL); err != nil {
		s.log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func (s *RingTrackingService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, ringCachePrefix); err != nil {
		s.log.Warn("Cache invalidation failed", zap.Error(err))
	}
}

func routeResponses(routes []db_models.Route, favorite bool) []response_models.RouteResponse {
	out := make([]response_models.RouteResponse, 0, len(routes))
	for i := range routes {
		resp := response_models.NewRouteResponse(&routes[i])
		resp.IsFavorite = favorite
		out = append(out, resp)
	}
	return out
}

func (s *RingTrackingService) ListRoutes(ctx context.Context) ([]response_models.RouteResponse, error) {
	return cached(ctx, s, routesCacheKey, func() ([]response_models.RouteResponse, error) {
		routes, err := s.repo.ListRoutes(ctx)
		if err != nil {
			return nil, mapRepoErr(s.log, "list routes", err)
		}
		return routeResponses(routes, false), nil
	})
}

func (s *RingTrackingService) GetRoute(ctx context.Context, id uuid.UUID) (*response_models.RouteResponse, error) {
	resp, err := cached(ctx, s, routeCacheKeyBase+id.String(), func() (response_models.RouteResponse, error) {
		route, err := s.repo.FindRoute(ctx, id)
		if err != nil {
			return response_models.RouteResponse{}, mapRepoErr(s.log, "find route", err)
		}
		if route == nil {
			return response_models.RouteResponse{}, utils.ErrRouteNotFound
		}
		return response_models.NewRouteResponse(route), nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// normalizeStops rejects repeated stop orders and returns the stops sorted.
func normalizeStops(in []request_models.RouteStopInput) ([]repositories.RouteStop, error) {
	seen := make(map[int]struct{}, len(in))
	out := make([]repositories.RouteStop, 0, len(in))
	for _, st := range in {
		if st.StopOrder < 1 {
			return nil, utils.ValidationError("stop_order must be at least 1")
		}
		if _, dup := seen[st.StopOrder]; dup {
			return nil, utils.ValidationError(fmt.Sprintf("stop_order %d is used more than once", st.StopOrder))
		}
		seen[st.StopOrder] = struct{}{}
		out = append(out, repositories.RouteStop{StationID: st.StationID, StopOrder: st.StopOrder})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StopOrder < out[j].StopOrder })
	return out, nil
}

// normalizeDepartures pads every time to HH:MM, drops repeats and sorts.
func normalizeDepartures(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		t, err := utils.NormalizeClockTime(strings.TrimSpace(raw))
		if err != nil {
			return nil, utils.ValidationError(err.Error())
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (s *RingTrackingService) CreateRoute(ctx context.Context, caller auth.Identity, request request_models.CreateRouteRequest) (*response_models.RouteResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	stops, err := normalizeStops(request.Stations)
	if err != nil {
		return nil, err
	}
	departures, err := normalizeDepartures(request.DepartureTimes)
	if err != nil {
		return nil, err
	}

	route := &db_models.Route{
		Name:        strings.TrimSpace(request.Name),
		Description: request.Description,
		Color:       request.Color,
	}
	created, err := s.repo.CreateRoute(ctx, route, stops, departures)
	if err != nil {
		return nil, mapRepoErr(s.log, "create route", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewRouteResponse(created)
	return &resp, nil
}

func (s *RingTrackingService) UpdateRoute(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateRouteRequest) (*response_models.RouteResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if request.Name != nil {
		updates["name"] = strings.TrimSpace(*request.Name)
	}
	if request.Description != nil {
		updates["description"] = *request.Description
	}
	if request.Color != nil {
		updates["color"] = *request.Color
	}

	route, err := s.repo.UpdateRoute(ctx, id, updates)
	if err != nil {
		return nil, mapRepoErr(s.log, "update route", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewRouteResponse(route)
	return &resp, nil
}

func (s *RingTrackingService) DeleteRoute(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.DeleteRoute(ctx, id); err != nil {
		return mapRepoErr(s.log, "delete route", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *RingTrackingService) UpdateRouteStations(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateRouteStationsRequest) (*response_models.RouteResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	stops, err := normalizeStops(request.Stations)
	if err != nil {
		return nil, err
	}

	route, err := s.repo.ReplaceRouteStations(ctx, id, stops)
	if err != nil {
		return nil, mapRepoErr(s.log, "replace route stations", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewRouteResponse(route)
	return &resp, nil
}

func (s *RingTrackingService) UpdateRouteDepartureTimes(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateDepartureTimesRequest) (*response_models.RouteResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	departures, err := normalizeDepartures(request.DepartureTimes)
	if err != nil {
		return nil, err
	}

	route, err := s.repo.ReplaceDepartureTimes(ctx, id, departures)
	if err != nil {
		return nil, mapRepoErr(s.log, "replace departure times", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewRouteResponse(route)
	return &resp, nil
}

func (s *RingTrackingService) UpdateRouteBuses(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateRouteBusesRequest) (*response_models.RouteResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	route, err := s.repo.ReplaceRouteBuses(ctx, id, request.BusIDs)
	if err != nil {
		return nil, mapRepoErr(s.log, "replace route buses", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewRouteResponse(route)
	return &resp, nil
}

func (s *RingTrackingService) ListStations(ctx context.Context) ([]response_models.StationResponse, error) {
	return cached(ctx, s, stationsCacheKey, func() ([]response_models.StationResponse, error) {
		stations, err := s.repo.ListStations(ctx)
		if err != nil {
			return nil, mapRepoErr(s.log, "list stations", err)
		}
		out := make([]response_models.StationResponse, 0, len(stations))
		for i := range stations {
			out = append(out, response_models.NewStationResponse(&stations[i]))
		}
		return out, nil
	})
}

func (s *RingTrackingService) CreateStation(ctx context.Context, caller auth.Identity, request request_models.CreateStationRequest) (*response_models.StationResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	station := &db_models.Station{
		Name:      strings.TrimSpace(request.Name),
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
	}
	if err := s.repo.CreateStation(ctx, station); err != nil {
		return nil, mapRepoErr(s.log, "create station", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewStationResponse(station)
	return &resp, nil
}

func (s *RingTrackingService) UpdateStation(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateStationRequest) (*response_models.StationResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if request.Name != nil {
		updates["name"] = strings.TrimSpace(*request.Name)
	}
	if request.Latitude != nil {
		updates["latitude"] = *request.Latitude
	}
	if request.Longitude != nil {
		updates["longitude"] = *request.Longitude
	}

	station, err := s.repo.UpdateStation(ctx, id, updates)
	if err != nil {
		return nil, mapRepoErr(s.log, "update station", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewStationResponse(station)
	return &resp, nil
}

func (s *RingTrackingService) DeleteStation(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.DeleteStation(ctx, id); err != nil {
		return mapRepoErr(s.log, "delete station", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *RingTrackingService) ListBuses(ctx context.Context, caller auth.Identity) ([]response_models.BusResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	buses, err := s.repo.ListBuses(ctx)
	if err != nil {
		return nil, mapRepoErr(s.log, "list buses", err)
	}
	out := make([]response_models.BusResponse, 0, len(buses))
	for i := range buses {
		out = append(out, response_models.NewBusResponse(&buses[i]))
	}
	return out, nil
}

func (s *RingTrackingService) CreateBus(ctx context.Context, caller auth.Identity, request request_models.CreateBusRequest) (*response_models.BusResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	bus := &db_models.Bus{
		PlateNumber: strings.ToUpper(strings.TrimSpace(request.PlateNumber)),
		Capacity:    request.Capacity,
	}
	if err := s.repo.CreateBus(ctx, bus); err != nil {
		return nil, mapRepoErr(s.log, "create bus", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewBusResponse(bus)
	return &resp, nil
}

func (s *RingTrackingService) UpdateBus(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateBusRequest) (*response_models.BusResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if request.PlateNumber != nil {
		updates["plate_number"] = strings.ToUpper(strings.TrimSpace(*request.PlateNumber))
	}
	if request.Capacity != nil {
		updates["capacity"] = *request.Capacity
	}

	bus, err := s.repo.UpdateBus(ctx, id, updates)
	if err != nil {
		return nil, mapRepoErr(s.log, "update bus", err)
	}
	s.invalidate(ctx)

	resp := response_models.NewBusResponse(bus)
	return &resp, nil
}

func (s *RingTrackingService) DeleteBus(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.DeleteBus(ctx, id); err != nil {
		return mapRepoErr(s.log, "delete bus", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *RingTrackingService) setFavorite(ctx context.Context, caller auth.Identity, routeID uuid.UUID, favorite bool) error {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return err
	}
	return mapRepoErr(s.log, "set favorite", s.repo.SetFavorite(ctx, caller.UserID, routeID, favorite))
}

func (s *RingTrackingService) AddFavoriteRoute(ctx context.Context, caller auth.Identity, routeID uuid.UUID) error {
	return s.setFavorite(ctx, caller, routeID, true)
}

func (s *RingTrackingService) RemoveFavoriteRoute(ctx context.Context, caller auth.Identity, routeID uuid.UUID) error {
	return s.setFavorite(ctx, caller, routeID, false)
}

// ListFavoriteRoutes is per user and never cached.
func (s *RingTrackingService) ListFavoriteRoutes(ctx context.Context, caller auth.Identity) ([]response_models.RouteResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}
	routes, err := s.repo.ListFavoriteRoutes(ctx, caller.UserID)
	if err != nil {
		return nil, mapRepoErr(s.log, "list favorite routes", err)
	}
	return routeResponses(routes, true), nil
}
