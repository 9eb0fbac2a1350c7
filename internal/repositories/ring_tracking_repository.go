package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"allinbee/internal/models/db_models"
	"allinbee/pkg/utils"
)

type RouteStop struct {
	StationID uuid.UUID
	StopOrder int
}

type RingTrackingRepository interface {
	ListRoutes(ctx context.Context) ([]db_models.Route, error)
	FindRoute(ctx context.Context, id uuid.UUID) (*db_models.Route, error)
	CreateRoute(ctx context.Context, route *db_models.Route, stops []RouteStop, departures []string) (*db_models.Route, error)
	UpdateRoute(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Route, error)
	DeleteRoute(ctx context.Context, id uuid.UUID) error
	ReplaceRouteStations(ctx context.Context, routeID uuid.UUID, stops []RouteStop) (*db_models.Route, error)
	ReplaceDepartureTimes(ctx context.Context, routeID uuid.UUID, departures []string) (*db_models.Route, error)
	ReplaceRouteBuses(ctx context.Context, routeID uuid.UUID, busIDs []uuid.UUID) (*db_models.Route, error)

	ListStations(ctx context.Context) ([]db_models.Station, error)
	CreateStation(ctx context.Context, station *db_models.Station) error
	UpdateStation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Station, error)
	DeleteStation(ctx context.Context, id uuid.UUID) error

	ListBuses(ctx context.Context) ([]db_models.Bus, error)
	CreateBus(ctx context.Context, bus *db_models.Bus) error
	UpdateBus(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Bus, error)
	DeleteBus(ctx context.Context, id uuid.UUID) error

	SetFavorite(ctx context.Context, userID, routeID uuid.UUID, favorite bool) error
	ListFavoriteRoutes(ctx context.Context, userID uuid.UUID) ([]db_models.Route, error)
}

type ringTrackingRepository struct {
	db *gorm.DB
}

func NewRingTrackingRepository(db *gorm.DB) RingTrackingRepository {
	return &ringTrackingRepository{db: db}
}

func routeDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Stations", func(db *gorm.DB) *gorm.DB { return db.Order("stop_order") }).
		Preload("Stations.Station").
		Preload("DepartureTimes", func(db *gorm.DB) *gorm.DB { return db.Order("departure_time") }).
		Preload("Buses")
}

func (r *ringTrackingRepository) ListRoutes(ctx context.Context) ([]db_models.Route, error) {
	var routes []db_models.Route
	err := r.db.WithContext(ctx).Scopes(routeDetails).Order("name").Find(&routes).Error
	return routes, err
}

func (r *ringTrackingRepository) FindRoute(ctx context.Context, id uuid.UUID) (*db_models.Route, error) {
	return findRoute(r.db.WithContext(ctx), id)
}

func findRoute(tx *gorm.DB, id uuid.UUID) (*db_models.Route, error) {
	var route db_models.Route
	err := tx.Scopes(routeDetails).First(&route, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &route, nil
}

func requireRouteTx(tx *gorm.DB, id uuid.UUID) error {
	var n int64
	if err := tx.Model(&db_models.Route{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrRouteNotFound
	}
	return nil
}

func translateRouteErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrRouteNameTaken
	}
	return err
}

func (r *ringTrackingRepository) CreateRoute(ctx context.Context, route *db_models.Route, stops []RouteStop, departures []string) (*db_models.Route, error) {
	var created *db_models.Route
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(route).Error; err != nil {
			return translateRouteErr(err)
		}
		if err := replaceStopsTx(tx, route.ID, stops); err != nil {
			return err
		}
		if err := replaceDeparturesTx(tx, route.ID, departures); err != nil {
			return err
		}
		rt, err := findRoute(tx, route.ID)
		created = rt
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *ringTrackingRepository) UpdateRoute(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Route, error) {
	return r.mutateRoute(ctx, id, func(tx *gorm.DB) error {
		if len(updates) == 0 {
			return nil
		}
		err := tx.Model(&db_models.Route{}).Where("id = ?", id).Updates(updates).Error
		return translateRouteErr(err)
	})
}

// mutateRoute runs fn in a transaction after checking the route exists and
// returns the route as it looks afterwards.
func (r *ringTrackingRepository) mutateRoute(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB) error) (*db_models.Route, error) {
	var out *db_models.Route
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRouteTx(tx, id); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		rt, err := findRoute(tx, id)
		out = rt
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ringTrackingRepository) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&db_models.Route{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrRouteNotFound
	}
	return nil
}

func (r *ringTrackingRepository) ReplaceRouteStations(ctx context.Context, routeID uuid.UUID, stops []RouteStop) (*db_models.Route, error) {
	return r.mutateRoute(ctx, routeID, func(tx *gorm.DB) error {
		return replaceStopsTx(tx, routeID, stops)
	})
}

// replaceStopsTx deletes every stop of the route and inserts stops. The
// (route_id, stop_order) index rejects duplicate positions.
func replaceStopsTx(tx *gorm.DB, routeID uuid.UUID, stops []RouteStop) error {
	if len(stops) > 0 {
		ids := make([]uuid.UUID, 0, len(stops))
		for _, s := range stops {
			ids = append(ids, s.StationID)
		}
		ids = uniqueIDs(ids)

		var found int64
		if err := tx.Model(&db_models.Station{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(ids) {
			return utils.ErrStationNotFound
		}
	}

	// 1) wipe
	if err := tx.Where("route_id = ?", routeID).Delete(&db_models.RouteStation{}).Error; err != nil {
		return err
	}
	if len(stops) == 0 {
		return nil
	}

	// 2) bulk insert
	rows := make([]db_models.RouteStation, 0, len(stops))
	for _, s := range stops {
		rows = append(rows, db_models.RouteStation{RouteID: routeID, StationID: s.StationID, StopOrder: s.StopOrder})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrDuplicateStopSlot
		}
		return err
	}
	return nil
}

func (r *ringTrackingRepository) ReplaceDepartureTimes(ctx context.Context, routeID uuid.UUID, departures []string) (*db_models.Route, error) {
	return r.mutateRoute(ctx, routeID, func(tx *gorm.DB) error {
		return replaceDeparturesTx(tx, routeID, departures)
	})
}

func replaceDeparturesTx(tx *gorm.DB, routeID uuid.UUID, departures []string) error {
	if err := tx.Where("route_id = ?", routeID).Delete(&db_models.RouteDepartureTime{}).Error; err != nil {
		return err
	}
	if len(departures) == 0 {
		return nil
	}

	rows := make([]db_models.RouteDepartureTime, 0, len(departures))
	for _, d := range departures {
		rows = append(rows, db_models.RouteDepartureTime{RouteID: routeID, DepartureTime: d})
	}
	if err := tx.Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ConflictError("duplicate departure time on this route")
		}
		return err
	}
	return nil
}

func (r *ringTrackingRepository) ReplaceRouteBuses(ctx context.Context, routeID uuid.UUID, busIDs []uuid.UUID) (*db_models.Route, error) {
	return r.mutateRoute(ctx, routeID, func(tx *gorm.DB) error {
		ids := uniqueIDs(busIDs)
		if len(ids) > 0 {
			var found int64
			if err := tx.Model(&db_models.Bus{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
				return err
			}
			if int(found) != len(ids) {
				return utils.ErrBusNotFound
			}
		}

		if err := tx.Where("route_id = ?", routeID).Delete(&db_models.BusDrivesRoute{}).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		rows := make([]db_models.BusDrivesRoute, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, db_models.BusDrivesRoute{BusID: id, RouteID: routeID})
		}
		return tx.Create(&rows).Error
	})
}

func (r *ringTrackingRepository) ListStations(ctx context.Context) ([]db_models.Station, error) {
	var stations []db_models.Station
	err := r.db.WithContext(ctx).Order("name").Find(&stations).Error
	return stations, err
}

func (r *ringTrackingRepository) CreateStation(ctx context.Context, station *db_models.Station) error {
	err := r.db.WithContext(ctx).Create(station).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrStationNameTaken
	}
	return err
}

func (r *ringTrackingRepository) UpdateStation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Station, error) {
	var station db_models.Station
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&station, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrStationNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&db_models.Station{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.ErrStationNameTaken
			}
			return err
		}
		return tx.First(&station, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &station, nil
}

// DeleteStation counts route references first so callers get a readable
// error instead of a foreign key failure.
func (r *ringTrackingRepository) DeleteStation(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&db_models.RouteStation{}).Where("station_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: referenced by %d route stop(s)", utils.ErrStationInUse, refs)
		}

		res := tx.Delete(&db_models.Station{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrStationNotFound
		}
		return nil
	})
}

func (r *ringTrackingRepository) ListBuses(ctx context.Context) ([]db_models.Bus, error) {
	var buses []db_models.Bus
	err := r.db.WithContext(ctx).Order("plate_number").Find(&buses).Error
	return buses, err
}

func (r *ringTrackingRepository) CreateBus(ctx context.Context, bus *db_models.Bus) error {
	err := r.db.WithContext(ctx).Create(bus).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrBusPlateTaken
	}
	return err
}

func (r *ringTrackingRepository) UpdateBus(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Bus, error) {
	var bus db_models.Bus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bus, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrBusNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&db_models.Bus{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.ErrBusPlateTaken
			}
			return err
		}
		return tx.First(&bus, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &bus, nil
}

func (r *ringTrackingRepository) DeleteBus(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&db_models.Bus{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrBusNotFound
	}
	return nil
}

// SetFavorite upserts the toggle row; removing a favorite keeps the row with
// is_favorite = false.
func (r *ringTrackingRepository) SetFavorite(ctx context.Context, userID, routeID uuid.UUID, favorite bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRouteTx(tx, routeID); err != nil {
			return err
		}
		row := db_models.UserFavoriteRoute{
			UserID:     userID,
			RouteID:    routeID,
			IsFavorite: favorite,
			UpdatedAt:  time.Now().Unix(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "route_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_favorite", "updated_at"}),
		}).Omit(clause.Associations).Create(&row).Error
	})
}

func (r *ringTrackingRepository) ListFavoriteRoutes(ctx context.Context, userID uuid.UUID) ([]db_models.Route, error) {
	var routes []db_models.Route
	err := r.db.WithContext(ctx).
		Scopes(routeDetails).
		Select("routes.*").
		Joins("JOIN user_favorite_routes ufr ON ufr.route_id = routes.id").
		Where("ufr.user_id = ? AND ufr.is_favorite = ?", userID, true).
		Order("routes.name").
		Find(&routes).Error
	return routes, err
}
