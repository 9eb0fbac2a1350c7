package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allinbee/internal/auth"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/pkg/utils"
)

func createStation(t *testing.T, svc *RingTrackingService, admin auth.Identity, name string) uuid.UUID {
	t.Helper()
	st, err := svc.CreateStation(context.Background(), admin, request_models.CreateStationRequest{Name: name, Latitude: 10.77, Longitude: 106.7})
	require.NoError(t, err)
	return st.ID
}

func TestCreateRouteNormalizesStopsAndTimes(t *testing.T) {
	svc, db, _ := newRingFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	a := createStation(t, svc, admin, "Gate A")
	b := createStation(t, svc, admin, "Library")

	route, err := svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{
		Name: "Ring 1",
		Stations: []request_models.RouteStopInput{
			{StationID: b, StopOrder: 2},
			{StationID: a, StopOrder: 1},
		},
		DepartureTimes: []string{"13:00", "7:05", "07:05"},
	})
	require.NoError(t, err)

	require.Len(t, route.Stops, 2)
	assert.Equal(t, a, route.Stops[0].Station.ID)
	assert.Equal(t, "Gate A", route.Stops[0].Station.Name)
	assert.Equal(t, 2, route.Stops[1].StopOrder)
	assert.Equal(t, []string{"07:05", "13:00"}, route.DepartureTimes)

	_, err = svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{Name: "Ring 1"})
	assert.ErrorIs(t, err, utils.ErrRouteNameTaken)

	_, err = svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{Name: "Bad", DepartureTimes: []string{"25:99"}})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestUpdateRouteStations(t *testing.T) {
	svc, db, _ := newRingFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	a := createStation(t, svc, admin, "Gate A")
	b := createStation(t, svc, admin, "Library")

	route, err := svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{
		Name:     "Ring 1",
		Stations: []request_models.RouteStopInput{{StationID: a, StopOrder: 1}, {StationID: b, StopOrder: 2}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateRouteStations(ctx, admin, route.ID, request_models.UpdateRouteStationsRequest{
		Stations: []request_models.RouteStopInput{{StationID: a, StopOrder: 1}, {StationID: b, StopOrder: 1}},
	})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = svc.UpdateRouteStations(ctx, admin, route.ID, request_models.UpdateRouteStationsRequest{
		Stations: []request_models.RouteStopInput{{StationID: uuid.New(), StopOrder: 1}},
	})
	assert.ErrorIs(t, err, utils.ErrStationNotFound)

	// the failed replacements left the original stops in place
	got, err := svc.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Len(t, got.Stops, 2)

	cleared, err := svc.UpdateRouteStations(ctx, admin, route.ID, request_models.UpdateRouteStationsRequest{
		Stations: []request_models.RouteStopInput{},
	})
	require.NoError(t, err)
	assert.Empty(t, cleared.Stops)

	var n int64
	require.NoError(t, db.Model(&db_models.RouteStation{}).Where("route_id = ?", route.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDeleteStationInUse(t *testing.T) {
	svc, db, _ := newRingFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	a := createStation(t, svc, admin, "Gate A")

	_, err := svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{
		Name:     "Ring 1",
		Stations: []request_models.RouteStopInput{{StationID: a, StopOrder: 1}},
	})
	require.NoError(t, err)

	err = svc.DeleteStation(ctx, admin, a)
	assert.ErrorIs(t, err, utils.ErrStationInUse)

	stations, err := svc.ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, a, stations[0].ID)

	free := createStation(t, svc, admin, "Dorm")
	require.NoError(t, svc.DeleteStation(ctx, admin, free))
	assert.ErrorIs(t, svc.DeleteStation(ctx, admin, free), utils.ErrStationNotFound)
}

func TestRouteReadsAreCachedAndWritesInvalidate(t *testing.T) {
	svc, db, store := newRingFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})

	routes, err := svc.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Empty(t, routes)
	assert.Equal(t, 1, store.Len())

	// a row written behind the service's back stays invisible until a write
	require.NoError(t, db.Create(&db_models.Route{Name: "Direct"}).Error)
	routes, err = svc.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Empty(t, routes)

	_, err = svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{Name: "Ring 1"})
	require.NoError(t, err)
	assert.Zero(t, store.Len())

	routes, err = svc.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 2)
}

func TestBusesAndRouteAssignment(t *testing.T) {
	svc, db, _ := newRingFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})

	bus, err := svc.CreateBus(ctx, admin, request_models.CreateBusRequest{PlateNumber: "51b-123.45", Capacity: 40})
	require.NoError(t, err)
	assert.Equal(t, "51B-123.45", bus.PlateNumber)

	_, err = svc.CreateBus(ctx, admin, request_models.CreateBusRequest{PlateNumber: "51B-123.45"})
	assert.ErrorIs(t, err, utils.ErrBusPlateTaken)

	route, err := svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{Name: "Ring 1"})
	require.NoError(t, err)

	updated, err := svc.UpdateRouteBuses(ctx, admin, route.ID, request_models.UpdateRouteBusesRequest{BusIDs: []uuid.UUID{bus.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bus.ID}, updated.BusIDs)

	_, err = svc.UpdateRouteBuses(ctx, admin, route.ID, request_models.UpdateRouteBusesRequest{BusIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, utils.ErrBusNotFound)

	require.NoError(t, svc.DeleteBus(ctx, admin, bus.ID))
	got, err := svc.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Empty(t, got.BusIDs)
}

func TestFavoriteRoutes(t *testing.T) {
	svc, db, _ := newRingFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	user := seedUser(t, db, "u@example.com", roles{student: true})

	route, err := svc.CreateRoute(ctx, admin, request_models.CreateRouteRequest{Name: "Ring 1"})
	require.NoError(t, err)

	require.NoError(t, svc.AddFavoriteRoute(ctx, user, route.ID))
	require.NoError(t, svc.AddFavoriteRoute(ctx, user, route.ID))
	favs, err := svc.ListFavoriteRoutes(ctx, user)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.True(t, favs[0].IsFavorite)

	require.NoError(t, svc.RemoveFavoriteRoute(ctx, user, route.ID))
	favs, err = svc.ListFavoriteRoutes(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, favs)

	var row db_models.UserFavoriteRoute
	require.NoError(t, db.First(&row, "user_id = ? AND route_id = ?", user.UserID, route.ID).Error)
	assert.False(t, row.IsFavorite)

	assert.ErrorIs(t, svc.AddFavoriteRoute(ctx, user, uuid.New()), utils.ErrRouteNotFound)
}

func TestRingTrackingWritesRequireAdmin(t *testing.T) {
	svc, db, _ := newRingFixture(t)
	ctx := context.Background()
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})

	_, err := svc.CreateStation(ctx, staff, request_models.CreateStationRequest{Name: "X"})
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))

	_, err = svc.CreateRoute(ctx, auth.Identity{}, request_models.CreateRouteRequest{Name: "X"})
	assert.ErrorIs(t, err, utils.ErrUnauthenticated)
}
