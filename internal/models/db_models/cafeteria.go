package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxMoneyAmount is the largest value a decimal(12,2) money column holds.
var MaxMoneyAmount = decimal.New(999999999999, -2)

// DigitalCard is a student's stored-value account. Balance never goes
// negative; debits are guarded in the update statement itself.
type DigitalCard struct {
	BaseModel
	StudentID          uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"student_id"`
	CardNo             string          `gorm:"size:32;uniqueIndex;not null" json:"card_no"`
	Balance            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	DepositMoneyAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"deposit_money_amount"`
	IssuedByStaffID    *uuid.UUID      `gorm:"type:uuid;index" json:"issued_by_staff_id,omitempty"`

	QRCodes []QRCode `gorm:"foreignKey:CardNo;references:CardNo;constraint:OnDelete:CASCADE" json:"-"`
}

// QRCode is a short-lived payment intent. PaysForDate moves from nil to a
// timestamp exactly once.
type QRCode struct {
	BaseModel
	CardNo      string     `gorm:"size:32;index;not null" json:"card_no"`
	MenuID      *uuid.UUID `gorm:"type:uuid;index" json:"menu_id,omitempty"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	PaysForDate *time.Time `json:"pays_for_date,omitempty"`
}

func (q *QRCode) IsRedeemed() bool { return q.PaysForDate != nil }

func (q *QRCode) IsExpiredAt(now time.Time) bool { return !now.Before(q.ExpiresAt) }

type Dish struct {
	BaseModel
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Calories    *int   `json:"calories,omitempty"`
}

type Menu struct {
	BaseModel
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	StaffID     *uuid.UUID      `gorm:"type:uuid;index" json:"staff_id,omitempty"`

	Dishes  []Dish   `gorm:"many2many:menu_dishes" json:"dishes"`
	QRCodes []QRCode `gorm:"foreignKey:MenuID;constraint:OnDelete:SET NULL" json:"-"`
}

// MenuDish is the join row between menus and dishes.
type MenuDish struct {
	MenuID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DishID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// Sale is a per-menu, per-day running counter rather than a ledger.
type Sale struct {
	BaseModel
	MenuID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sales_menu_date" json:"menu_id"`
	SaleDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_sales_menu_date" json:"sale_date"`
	NumSold  int       `gorm:"not null;default:0" json:"num_sold"`

	Menu *Menu `gorm:"foreignKey:MenuID;constraint:OnDelete:CASCADE" json:"menu,omitempty"`
}
