package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"allinbee/internal/models/db_models"
	"allinbee/pkg/utils"
)

// maxCardNoAttempts bounds retries when a random card number collides.
const maxCardNoAttempts = 5

// CardNumberFunc produces a candidate card number for a student.
type CardNumberFunc func(studentID uuid.UUID) (string, error)

type PaymentResult struct {
	Card   db_models.DigitalCard
	QRCode db_models.QRCode
	Sale   db_models.Sale
	Price  decimal.Decimal
}

type CardRepository interface {
	GetOrCreateCard(ctx context.Context, studentID uuid.UUID, issuedBy *uuid.UUID, cardNo CardNumberFunc) (*db_models.DigitalCard, error)
	Deposit(ctx context.Context, studentID uuid.UUID, amount decimal.Decimal, issuedBy *uuid.UUID, cardNo CardNumberFunc) (*db_models.DigitalCard, error)
	CreateQRCode(ctx context.Context, qr *db_models.QRCode) error
	RedeemQRCode(ctx context.Context, qrID, menuID uuid.UUID, now time.Time) (*PaymentResult, error)
	ListSales(ctx context.Context, from, to time.Time) ([]db_models.Sale, error)
	PurgeExpiredQRCodes(ctx context.Context, before time.Time) (int64, error)
}

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) GetOrCreateCard(ctx context.Context, studentID uuid.UUID, issuedBy *uuid.UUID, cardNo CardNumberFunc) (*db_models.DigitalCard, error) {
	var card *db_models.DigitalCard
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := getOrCreateCardTx(tx, studentID, issuedBy, cardNo)
		card = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// getOrCreateCardTx materialises the student role and the card if either is
// missing. Concurrent callers converge on the row keyed by student_id.
func getOrCreateCardTx(tx *gorm.DB, studentID uuid.UUID, issuedBy *uuid.UUID, cardNo CardNumberFunc) (*db_models.DigitalCard, error) {
	if err := ensureStudentTx(tx, studentID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCardNoAttempts; attempt++ {
		var existing db_models.DigitalCard
		err := tx.Where("student_id = ?", studentID).Take(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		no, err := cardNo(studentID)
		if err != nil {
			return nil, err
		}
		card := db_models.DigitalCard{
			StudentID:          studentID,
			CardNo:             no,
			Balance:            decimal.Zero,
			DepositMoneyAmount: decimal.Zero,
			IssuedByStaffID:    issuedBy,
		}
		// either unique key may already be taken; re-read decides which
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&card).Error; err != nil {
			return nil, err
		}
	}
	return nil, utils.ConflictError("could not allocate a unique card number")
}

func ensureStudentTx(tx *gorm.DB, userID uuid.UUID) error {
	var users int64
	if err := tx.Model(&db_models.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
		return err
	}
	if users == 0 {
		return utils.ErrAccountNotFound
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&db_models.Student{UserID: userID}).Error
}

func (r *cardRepository) Deposit(ctx context.Context, studentID uuid.UUID, amount decimal.Decimal, issuedBy *uuid.UUID, cardNo CardNumberFunc) (*db_models.DigitalCard, error) {
	var card db_models.DigitalCard
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := getOrCreateCardTx(tx, studentID, issuedBy, cardNo)
		if err != nil {
			return err
		}

		var locked db_models.DigitalCard
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", c.ID).Error; err != nil {
			return err
		}
		if locked.Balance.Add(amount).GreaterThan(db_models.MaxMoneyAmount) ||
			locked.DepositMoneyAmount.Add(amount).GreaterThan(db_models.MaxMoneyAmount) {
			return utils.ErrCardLimitExceeded
		}

		err = tx.Model(&db_models.DigitalCard{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"balance":              gorm.Expr("balance + ?", amount),
			"deposit_money_amount": gorm.Expr("deposit_money_amount + ?", amount),
		}).Error
		if err != nil {
			return err
		}
		return tx.First(&card, "id = ?", c.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) CreateQRCode(ctx context.Context, qr *db_models.QRCode) error {
	return r.db.WithContext(ctx).Create(qr).Error
}

// RedeemQRCode debits the card, stamps the code and bumps the day's sale
// counter in one transaction. Every check happens before the first write and
// each write is guarded again in its WHERE clause.
func (r *cardRepository) RedeemQRCode(ctx context.Context, qrID, menuID uuid.UUID, now time.Time) (*PaymentResult, error) {
	var result PaymentResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var qr db_models.QRCode
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&qr, "id = ?", qrID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrQRCodeNotFound
			}
			return err
		}
		if qr.IsRedeemed() {
			return utils.ErrQRCodeAlreadyUsed
		}
		if qr.IsExpiredAt(now) {
			return utils.ErrQRCodeExpired
		}
		if qr.MenuID != nil && *qr.MenuID != menuID {
			return utils.ErrQRCodeMenuMismatch
		}

		var menu db_models.Menu
		if err := tx.First(&menu, "id = ?", menuID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrMenuNotFound
			}
			return err
		}

		var card db_models.DigitalCard
		if err := tx.First(&card, "card_no = ?", qr.CardNo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrCardNotFound
			}
			return err
		}
		if card.Balance.LessThan(menu.Price) {
			return utils.ErrInsufficientBalance
		}

		debit := tx.Model(&db_models.DigitalCard{}).
			Where("id = ? AND balance >= ?", card.ID, menu.Price).
			Update("balance", gorm.Expr("balance - ?", menu.Price))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return utils.ErrInsufficientBalance
		}

		paidAt := now.UTC()
		stamp := tx.Model(&db_models.QRCode{}).
			Where("id = ? AND pays_for_date IS NULL", qr.ID).
			Updates(map[string]interface{}{"pays_for_date": paidAt, "menu_id": menuID})
		if stamp.Error != nil {
			return stamp.Error
		}
		if stamp.RowsAffected == 0 {
			return utils.ErrQRCodeAlreadyUsed
		}

		sale, err := bumpSaleTx(tx, menuID, utils.DateOf(now))
		if err != nil {
			return err
		}

		if err := tx.First(&result.Card, "id = ?", card.ID).Error; err != nil {
			return err
		}
		if err := tx.First(&result.QRCode, "id = ?", qr.ID).Error; err != nil {
			return err
		}
		result.Sale = *sale
		result.Price = menu.Price
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// bumpSaleTx inserts the (menu, day) row if absent and increments it, so two
// first sales of the day cannot collide on the unique key.
func bumpSaleTx(tx *gorm.DB, menuID uuid.UUID, day time.Time) (*db_models.Sale, error) {
	seed := db_models.Sale{MenuID: menuID, SaleDate: day}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&seed).Error; err != nil {
		return nil, err
	}

	err := tx.Model(&db_models.Sale{}).
		Where("menu_id = ? AND sale_date = ?", menuID, day).
		Update("num_sold", gorm.Expr("num_sold + 1")).Error
	if err != nil {
		return nil, err
	}

	var sale db_models.Sale
	if err := tx.Where("menu_id = ? AND sale_date = ?", menuID, day).Take(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *cardRepository) ListSales(ctx context.Context, from, to time.Time) ([]db_models.Sale, error) {
	var sales []db_models.Sale
	err := r.db.WithContext(ctx).
		Preload("Menu").
		Where("sale_date >= ? AND sale_date <= ?", from, to).
		Order("sale_date").Order("menu_id").
		Find(&sales).Error
	return sales, err
}

func (r *cardRepository) PurgeExpiredQRCodes(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("pays_for_date IS NULL AND expires_at < ?", before.UTC()).
		Delete(&db_models.QRCode{})
	return res.RowsAffected, res.Error
}
