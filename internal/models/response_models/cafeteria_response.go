package response_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"allinbee/internal/models/db_models"
)

type DigitalCardResponse struct {
	ID                 uuid.UUID       `json:"id"`
	StudentID          uuid.UUID       `json:"student_id"`
	CardNo             string          `json:"card_no"`
	Balance            decimal.Decimal `json:"balance"`
	DepositMoneyAmount decimal.Decimal `json:"deposit_money_amount"`
	IssuedByStaffID    *uuid.UUID      `json:"issued_by_staff_id,omitempty"`
}

func NewDigitalCardResponse(c *db_models.DigitalCard) DigitalCardResponse {
	return DigitalCardResponse{
		ID:                 c.ID,
		StudentID:          c.StudentID,
		CardNo:             c.CardNo,
		Balance:            c.Balance,
		DepositMoneyAmount: c.DepositMoneyAmount,
		IssuedByStaffID:    c.IssuedByStaffID,
	}
}

type QRCodeResponse struct {
	ID          uuid.UUID  `json:"id"`
	CardNo      string     `json:"card_no"`
	MenuID      *uuid.UUID `json:"menu_id,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	PaysForDate *time.Time `json:"pays_for_date,omitempty"`
}

func NewQRCodeResponse(q *db_models.QRCode) QRCodeResponse {
	return QRCodeResponse{
		ID:          q.ID,
		CardNo:      q.CardNo,
		MenuID:      q.MenuID,
		ExpiresAt:   q.ExpiresAt,
		PaysForDate: q.PaysForDate,
	}
}

type SaleResponse struct {
	ID       uuid.UUID `json:"id"`
	MenuID   uuid.UUID `json:"menu_id"`
	MenuName string    `json:"menu_name,omitempty"`
	SaleDate string    `json:"sale_date"`
	NumSold  int       `json:"num_sold"`
}

func NewSaleResponse(s *db_models.Sale) SaleResponse {
	resp := SaleResponse{
		ID:       s.ID,
		MenuID:   s.MenuID,
		SaleDate: s.SaleDate.UTC().Format("2006-01-02"),
		NumSold:  s.NumSold,
	}
	if s.Menu != nil {
		resp.MenuName = s.Menu.Name
	}
	return resp
}

type PaymentResponse struct {
	Balance decimal.Decimal `json:"balance"`
	Sale    SaleResponse    `json:"sale"`
	QRCode  QRCodeResponse  `json:"qr_code"`
}

type DishResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Calories    *int      `json:"calories,omitempty"`
}

func NewDishResponse(d *db_models.Dish) DishResponse {
	return DishResponse{ID: d.ID, Name: d.Name, Description: d.Description, Calories: d.Calories}
}

type MenuResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	StaffID     *uuid.UUID      `json:"staff_id,omitempty"`
	Dishes      []DishResponse  `json:"dishes"`
}

func NewMenuResponse(m *db_models.Menu) MenuResponse {
	dishes := make([]DishResponse, 0, len(m.Dishes))
	for i := range m.Dishes {
		dishes = append(dishes, NewDishResponse(&m.Dishes[i]))
	}
	return MenuResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		StaffID:     m.StaffID,
		Dishes:      dishes,
	}
}
