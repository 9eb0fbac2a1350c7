package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"allinbee/internal/models/db_models"
	"allinbee/pkg/utils"
)

type MenuRepository interface {
	ListMenus(ctx context.Context) ([]db_models.Menu, error)
	FindMenu(ctx context.Context, id uuid.UUID) (*db_models.Menu, error)
	CreateMenu(ctx context.Context, menu *db_models.Menu, dishIDs []uuid.UUID) (*db_models.Menu, error)
	UpdateMenu(ctx context.Context, id uuid.UUID, updates map[string]interface{}, dishIDs *[]uuid.UUID) (*db_models.Menu, error)
	DeleteMenu(ctx context.Context, id uuid.UUID) error

	ListDishes(ctx context.Context) ([]db_models.Dish, error)
	CreateDish(ctx context.Context, dish *db_models.Dish) error
	UpdateDish(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Dish, error)
	DeleteDish(ctx context.Context, id uuid.UUID) error
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func orderedDishes(db *gorm.DB) *gorm.DB {
	return db.Order("dishes.name")
}

func (r *menuRepository) ListMenus(ctx context.Context) ([]db_models.Menu, error) {
	var menus []db_models.Menu
	err := r.db.WithContext(ctx).Preload("Dishes", orderedDishes).Order("name").Find(&menus).Error
	return menus, err
}

func (r *menuRepository) FindMenu(ctx context.Context, id uuid.UUID) (*db_models.Menu, error) {
	return findMenu(r.db.WithContext(ctx), id)
}

func findMenu(tx *gorm.DB, id uuid.UUID) (*db_models.Menu, error) {
	var menu db_models.Menu
	err := tx.Preload("Dishes", orderedDishes).First(&menu, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &menu, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// replaceMenuDishesTx swaps the dish set of a menu for dishIDs.
func replaceMenuDishesTx(tx *gorm.DB, menuID uuid.UUID, dishIDs []uuid.UUID) error {
	ids := uniqueIDs(dishIDs)
	if len(ids) > 0 {
		var found int64
		if err := tx.Model(&db_models.Dish{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(ids) {
			return utils.ErrDishNotFound
		}
	}

	if err := tx.Where("menu_id = ?", menuID).Delete(&db_models.MenuDish{}).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	links := make([]db_models.MenuDish, 0, len(ids))
	for _, id := range ids {
		links = append(links, db_models.MenuDish{MenuID: menuID, DishID: id})
	}
	return tx.Create(&links).Error
}

func (r *menuRepository) CreateMenu(ctx context.Context, menu *db_models.Menu, dishIDs []uuid.UUID) (*db_models.Menu, error) {
	var created *db_models.Menu
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(menu).Error; err != nil {
			return err
		}
		if err := replaceMenuDishesTx(tx, menu.ID, dishIDs); err != nil {
			return err
		}
		m, err := findMenu(tx, menu.ID)
		created = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *menuRepository) UpdateMenu(ctx context.Context, id uuid.UUID, updates map[string]interface{}, dishIDs *[]uuid.UUID) (*db_models.Menu, error) {
	var updated *db_models.Menu
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findMenu(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return utils.ErrMenuNotFound
		}

		if len(updates) > 0 {
			if err := tx.Model(&db_models.Menu{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if dishIDs != nil {
			if err := replaceMenuDishesTx(tx, id, *dishIDs); err != nil {
				return err
			}
		}

		m, err := findMenu(tx, id)
		updated = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMenu refuses while sale aggregates reference the menu.
func (r *menuRepository) DeleteMenu(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var menus int64
		if err := tx.Model(&db_models.Menu{}).Where("id = ?", id).Count(&menus).Error; err != nil {
			return err
		}
		if menus == 0 {
			return utils.ErrMenuNotFound
		}

		var sales int64
		if err := tx.Model(&db_models.Sale{}).Where("menu_id = ?", id).Count(&sales).Error; err != nil {
			return err
		}
		if sales > 0 {
			return utils.ErrMenuHasSales
		}

		if err := tx.Where("menu_id = ?", id).Delete(&db_models.MenuDish{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db_models.Menu{}, "id = ?", id).Error
	})
}

func (r *menuRepository) ListDishes(ctx context.Context) ([]db_models.Dish, error) {
	var dishes []db_models.Dish
	err := r.db.WithContext(ctx).Order("name").Find(&dishes).Error
	return dishes, err
}

func (r *menuRepository) CreateDish(ctx context.Context, dish *db_models.Dish) error {
	return r.db.WithContext(ctx).Create(dish).Error
}

func (r *menuRepository) UpdateDish(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*db_models.Dish, error) {
	var dish db_models.Dish
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dish, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrDishNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&db_models.Dish{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&dish, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &dish, nil
}

// DeleteDish drops the dish together with its menu links.
func (r *menuRepository) DeleteDish(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dish_id = ?", id).Delete(&db_models.MenuDish{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&db_models.Dish{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrDishNotFound
		}
		return nil
	})
}
