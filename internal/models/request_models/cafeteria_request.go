package request_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DepositRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	StudentID *uuid.UUID      `json:"student_id"`
}

type GenerateQRCodeRequest struct {
	MenuID *uuid.UUID `json:"menu_id"`
}

type ProcessPaymentRequest struct {
	QRCodeID uuid.UUID `json:"qr_code_id" binding:"required"`
	MenuID   uuid.UUID `json:"menu_id" binding:"required"`
}

type CreateMenuRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description" binding:"max=1000"`
	Price       decimal.Decimal `json:"price"`
	DishIDs     []uuid.UUID     `json:"dish_ids" binding:"omitempty,dive,required"`
}

type UpdateMenuRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	Price       *decimal.Decimal `json:"price"`
	DishIDs     *[]uuid.UUID     `json:"dish_ids"`
}

type CreateDishRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=1000"`
	Calories    *int   `json:"calories" binding:"omitempty,gte=0"`
}

type UpdateDishRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Calories    *int    `json:"calories" binding:"omitempty,gte=0"`
}

type SalesRangeQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}
