package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"allinbee/internal/models/db_models"
	"allinbee/pkg/utils"
)

// RoleChanges describes role grants (true) and revocations (false). Nil
// leaves a role untouched. ManagedByID, when set, is stamped on every role
// record the user holds after the change.
type RoleChanges struct {
	Student     *bool
	Staff       *bool
	Admin       *bool
	ManagedByID *uuid.UUID
}

func (r RoleChanges) Empty() bool {
	return r.Student == nil && r.Staff == nil && r.Admin == nil && r.ManagedByID == nil
}

type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*db_models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.User, error)
	CreateWithRoles(ctx context.Context, user *db_models.User, roles RoleChanges) error
	UpdateWithRoles(ctx context.Context, id uuid.UUID, updates map[string]interface{}, roles RoleChanges) (*db_models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, search string, offset, limit int) ([]db_models.User, int64, error)
	ListStaff(ctx context.Context) ([]db_models.User, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func preloadRoles(db *gorm.DB) *gorm.DB {
	return db.Preload("Student").Preload("Staff").Preload("Admin")
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.User, error) {
	var user db_models.User
	err := a.db.WithContext(ctx).Scopes(preloadRoles).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (a *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	return findUser(a.db.WithContext(ctx), id)
}

func findUser(tx *gorm.DB, id uuid.UUID) (*db_models.User, error) {
	var user db_models.User
	err := tx.Scopes(preloadRoles).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (a *accountRepository) CreateWithRoles(ctx context.Context, user *db_models.User, roles RoleChanges) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.ErrEmailAlreadyExists
			}
			return err
		}
		return applyRoleChanges(tx, user.ID, roles)
	})
}

func (a *accountRepository) UpdateWithRoles(ctx context.Context, id uuid.UUID, updates map[string]interface{}, roles RoleChanges) (*db_models.User, error) {
	var updated *db_models.User
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db_models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.ErrAccountNotFound
		}

		if len(updates) > 0 {
			if err := tx.Model(&db_models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return utils.ErrEmailAlreadyExists
				}
				return err
			}
		}

		if err := applyRoleChanges(tx, id, roles); err != nil {
			return err
		}

		u, err := findUser(tx, id)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// applyRoleChanges must run inside a transaction.
func applyRoleChanges(tx *gorm.DB, userID uuid.UUID, roles RoleChanges) error {
	if roles.ManagedByID != nil {
		var admins int64
		if err := tx.Model(&db_models.Admin{}).Where("user_id = ?", *roles.ManagedByID).Count(&admins).Error; err != nil {
			return err
		}
		if admins == 0 {
			return utils.ErrAdminNotFound
		}
	}

	// appointmentColumn names the appointments that cascade away with the
	// role record.
	type roleTable struct {
		flag              *bool
		model             interface{}
		appointmentColumn string
	}
	tables := []roleTable{
		{roles.Student, &db_models.Student{UserID: userID, ManagedByID: roles.ManagedByID}, "student_id"},
		{roles.Staff, &db_models.Staff{UserID: userID, ManagedByID: roles.ManagedByID}, "staff_id"},
		{roles.Admin, &db_models.Admin{UserID: userID, ManagedByID: roles.ManagedByID}, ""},
	}

	for _, t := range tables {
		switch {
		case t.flag == nil:
			if roles.ManagedByID != nil {
				if err := tx.Model(t.model).Where("user_id = ?", userID).
					Update("managed_by_id", *roles.ManagedByID).Error; err != nil {
					return err
				}
			}
		case *t.flag:
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(t.model).Error; err != nil {
				return err
			}
			if roles.ManagedByID != nil {
				if err := tx.Model(t.model).Where("user_id = ?", userID).
					Update("managed_by_id", *roles.ManagedByID).Error; err != nil {
					return err
				}
			}
		default:
			if t.appointmentColumn != "" {
				if err := releaseUserBorrowsTx(tx, t.appointmentColumn, userID); err != nil {
					return err
				}
			}
			if err := tx.Where("user_id = ?", userID).Delete(t.model).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// releaseUserBorrowsTx puts back the copies still held by the user's
// appointments before a cascade removes the borrow records.
func releaseUserBorrowsTx(tx *gorm.DB, column string, userID uuid.UUID) error {
	var ids []uuid.UUID
	err := tx.Model(&db_models.Appointment{}).
		Where(column+" = ?", userID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}

	now := time.Now()
	for _, id := range ids {
		if _, err := releaseBorrowsTx(tx, id, now); err != nil {
			return err
		}
	}
	return nil
}

func (a *accountRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, column := range []string{"student_id", "staff_id"} {
			if err := releaseUserBorrowsTx(tx, column, id); err != nil {
				return err
			}
		}

		res := tx.Delete(&db_models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (a *accountRepository) List(ctx context.Context, search string, offset, limit int) ([]db_models.User, int64, error) {
	q := a.db.WithContext(ctx).Model(&db_models.User{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []db_models.User
	err := q.Scopes(preloadRoles).
		Order("created_at DESC").Order("email").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (a *accountRepository) ListStaff(ctx context.Context) ([]db_models.User, error) {
	var users []db_models.User
	err := a.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN staff ON staff.user_id = users.id").
		Order("users.first_name").Order("users.last_name").
		Find(&users).Error
	return users, err
}
