package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"allinbee/internal/auth"
	"allinbee/internal/events"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/internal/models/response_models"
	"allinbee/internal/repositories"
	"allinbee/pkg/utils"
)

// QRCodeTTL is how long a generated payment code stays redeemable.
const QRCodeTTL = 5 * time.Minute

type CafeteriaServiceInterface interface {
	GetMyDigitalCard(ctx context.Context, caller auth.Identity) (*response_models.DigitalCardResponse, error)
	RecordDeposit(ctx context.Context, caller auth.Identity, request request_models.DepositRequest) (*response_models.DigitalCardResponse, error)
	GeneratePaymentQRCode(ctx context.Context, caller auth.Identity, request request_models.GenerateQRCodeRequest) (*response_models.QRCodeResponse, error)
	ProcessQRCodePayment(ctx context.Context, caller auth.Identity, request request_models.ProcessPaymentRequest) (*response_models.PaymentResponse, error)

	ListMenus(ctx context.Context) ([]response_models.MenuResponse, error)
	GetMenu(ctx context.Context, id uuid.UUID) (*response_models.MenuResponse, error)
	CreateMenu(ctx context.Context, caller auth.Identity, request request_models.CreateMenuRequest) (*response_models.MenuResponse, error)
	UpdateMenu(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateMenuRequest) (*response_models.MenuResponse, error)
	DeleteMenu(ctx context.Context, caller auth.Identity, id uuid.UUID) error

	ListDishes(ctx context.Context) ([]response_models.DishResponse, error)
	CreateDish(ctx context.Context, caller auth.Identity, request request_models.CreateDishRequest) (*response_models.DishResponse, error)
	UpdateDish(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateDishRequest) (*response_models.DishResponse, error)
	DeleteDish(ctx context.Context, caller auth.Identity, id uuid.UUID) error

	ListSales(ctx context.Context, caller auth.Identity, query request_models.SalesRangeQuery) ([]response_models.SaleResponse, error)
	ExportSalesReport(ctx context.Context, caller auth.Identity, query request_models.SalesRangeQuery) (*SalesReport, error)
	PurgeExpiredQRCodes(ctx context.Context, retention time.Duration) (int64, error)
}

type CafeteriaService struct {
	cardRepo  repositories.CardRepository
	menuRepo  repositories.MenuRepository
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewCafeteriaService(
	cardRepo repositories.CardRepository,
	menuRepo repositories.MenuRepository,
	publisher events.Publisher,
	log *zap.Logger,
) *CafeteriaService {
	return &CafeteriaService{
		cardRepo:  cardRepo,
		menuRepo:  menuRepo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// NewCardNumber builds "AIB-<first 8 hex of the user id>-<6 random digits>".
func NewCardNumber(studentID uuid.UUID) (string, error) {
	suffix, err := utils.GenerateDigits(6)
	if err != nil {
		return "", err
	}
	prefix := strings.ToUpper(strings.ReplaceAll(studentID.String(), "-", "")[:8])
	return fmt.Sprintf("AIB-%s-%s", prefix, suffix), nil
}

// validateMoney accepts non-negative amounts with at most two decimals that
// fit the money columns.
func validateMoney(field string, amount decimal.Decimal, allowZero bool) error {
	if amount.IsNegative() || (!allowZero && amount.IsZero()) {
		if allowZero {
			return utils.ValidationError(field + " must not be negative")
		}
		return utils.ValidationError(field + " must be greater than zero")
	}
	if amount.GreaterThan(db_models.MaxMoneyAmount) {
		return utils.ValidationError(field + " must not exceed " + db_models.MaxMoneyAmount.StringFixed(2))
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return utils.ValidationError(field + " must have at most two decimal places")
	}
	return nil
}

func (s *CafeteriaService) GetMyDigitalCard(ctx context.Context, caller auth.Identity) (*response_models.DigitalCardResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}

	card, err := s.cardRepo.GetOrCreateCard(ctx, caller.UserID, nil, NewCardNumber)
	if err != nil {
		return nil, mapRepoErr(s.log, "get or create card", err)
	}
	resp := response_models.NewDigitalCardResponse(card)
	return &resp, nil
}

func (s *CafeteriaService) RecordDeposit(ctx context.Context, caller auth.Identity, request request_models.DepositRequest) (*response_models.DigitalCardResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}
	if err := validateMoney("amount", request.Amount, false); err != nil {
		return nil, err
	}

	target := caller.UserID
	var issuedBy *uuid.UUID
	if request.StudentID != nil && *request.StudentID != caller.UserID {
		if !caller.IsStaffOrAdmin() {
			return nil, fmt.Errorf("%w: only staff may deposit to another student's card", utils.ErrForbidden)
		}
		target = *request.StudentID
	}
	if caller.IsStaff && target != caller.UserID {
		issuedBy = &caller.UserID
	}

	card, err := s.cardRepo.Deposit(ctx, target, request.Amount, issuedBy, NewCardNumber)
	if err != nil {
		return nil, mapRepoErr(s.log, "deposit", err)
	}

	events.Emit(ctx, s.publisher, s.log, events.New(events.DepositRecorded, events.DepositRecordedPayload{
		CardNo:  card.CardNo,
		Amount:  request.Amount.StringFixed(2),
		Balance: card.Balance.StringFixed(2),
	}))

	resp := response_models.NewDigitalCardResponse(card)
	return &resp, nil
}

func (s *CafeteriaService) GeneratePaymentQRCode(ctx context.Context, caller auth.Identity, request request_models.GenerateQRCodeRequest) (*response_models.QRCodeResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}

	if request.MenuID != nil {
		menu, err := s.menuRepo.FindMenu(ctx, *request.MenuID)
		if err != nil {
			return nil, mapRepoErr(s.log, "find menu", err)
		}
		if menu == nil {
			return nil, utils.ErrMenuNotFound
		}
	}

	card, err := s.cardRepo.GetOrCreateCard(ctx, caller.UserID, nil, NewCardNumber)
	if err != nil {
		return nil, mapRepoErr(s.log, "get or create card", err)
	}

	qr := &db_models.QRCode{
		CardNo:    card.CardNo,
		MenuID:    request.MenuID,
		ExpiresAt: s.now().UTC().Add(QRCodeTTL),
	}
	if err := s.cardRepo.CreateQRCode(ctx, qr); err != nil {
		return nil, mapRepoErr(s.log, "create qr code", err)
	}

	resp := response_models.NewQRCodeResponse(qr)
	return &resp, nil
}

func (s *CafeteriaService) ProcessQRCodePayment(ctx context.Context, caller auth.Identity, request request_models.ProcessPaymentRequest) (*response_models.PaymentResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	result, err := s.cardRepo.RedeemQRCode(ctx, request.QRCodeID, request.MenuID, s.now())
	if err != nil {
		return nil, mapRepoErr(s.log, "redeem qr code", err)
	}

	sale := response_models.NewSaleResponse(&result.Sale)
	events.Emit(ctx, s.publisher, s.log, events.New(events.PaymentProcessed, events.PaymentProcessedPayload{
		QRCodeID: result.QRCode.ID.String(),
		CardNo:   result.Card.CardNo,
		MenuID:   request.MenuID.String(),
		Amount:   result.Price.StringFixed(2),
		Balance:  result.Card.Balance.StringFixed(2),
		SaleDate: sale.SaleDate,
	}))

	return &response_models.PaymentResponse{
		Balance: result.Card.Balance,
		Sale:    sale,
		QRCode:  response_models.NewQRCodeResponse(&result.QRCode),
	}, nil
}

func (s *CafeteriaService) ListMenus(ctx context.Context) ([]response_models.MenuResponse, error) {
	menus, err := s.menuRepo.ListMenus(ctx)
	if err != nil {
		return nil, mapRepoErr(s.log, "list menus", err)
	}
	out := make([]response_models.MenuResponse, 0, len(menus))
	for i := range menus {
		out = append(out, response_models.NewMenuResponse(&menus[i]))
	}
	return out, nil
}

func (s *CafeteriaService) GetMenu(ctx context.Context, id uuid.UUID) (*response_models.MenuResponse, error) {
	menu, err := s.menuRepo.FindMenu(ctx, id)
	if err != nil {
		return nil, mapRepoErr(s.log, "find menu", err)
	}
	if menu == nil {
		return nil, utils.ErrMenuNotFound
	}
	resp := response_models.NewMenuResponse(menu)
	return &resp, nil
}

func (s *CafeteriaService) CreateMenu(ctx context.Context, caller auth.Identity, request request_models.CreateMenuRequest) (*response_models.MenuResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	if err := validateMoney("price", request.Price, true); err != nil {
		return nil, err
	}

	menu := &db_models.Menu{
		Name:        strings.TrimSpace(request.Name),
		Description: request.Description,
		Price:       request.Price,
	}
	if caller.IsStaff {
		menu.StaffID = &caller.UserID
	}

	created, err := s.menuRepo.CreateMenu(ctx, menu, request.DishIDs)
	if err != nil {
		return nil, mapRepoErr(s.log, "create menu", err)
	}
	resp := response_models.NewMenuResponse(created)
	return &resp, nil
}

func (s *CafeteriaService) UpdateMenu(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateMenuRequest) (*response_models.MenuResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
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
	if request.Price != nil {
		if err := validateMoney("price", *request.Price, true); err != nil {
			return nil, err
		}
		updates["price"] = *request.Price
	}

	updated, err := s.menuRepo.UpdateMenu(ctx, id, updates, request.DishIDs)
	if err != nil {
		return nil, mapRepoErr(s.log, "update menu", err)
	}
	resp := response_models.NewMenuResponse(updated)
	return &resp, nil
}

func (s *CafeteriaService) DeleteMenu(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return err
	}
	return mapRepoErr(s.log, "delete menu", s.menuRepo.DeleteMenu(ctx, id))
}

func (s *CafeteriaService) ListDishes(ctx context.Context) ([]response_models.DishResponse, error) {
	dishes, err := s.menuRepo.ListDishes(ctx)
	if err != nil {
		return nil, mapRepoErr(s.log, "list dishes", err)
	}
	out := make([]response_models.DishResponse, 0, len(dishes))
	for i := range dishes {
		out = append(out, response_models.NewDishResponse(&dishes[i]))
	}
	return out, nil
}

func (s *CafeteriaService) CreateDish(ctx context.Context, caller auth.Identity, request request_models.CreateDishRequest) (*response_models.DishResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	dish := &db_models.Dish{
		Name:        strings.TrimSpace(request.Name),
		Description: request.Description,
		Calories:    request.Calories,
	}
	if err := s.menuRepo.CreateDish(ctx, dish); err != nil {
		return nil, mapRepoErr(s.log, "create dish", err)
	}
	resp := response_models.NewDishResponse(dish)
	return &resp, nil
}

func (s *CafeteriaService) UpdateDish(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateDishRequest) (*response_models.DishResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
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
	if request.Calories != nil {
		updates["calories"] = *request.Calories
	}

	dish, err := s.menuRepo.UpdateDish(ctx, id, updates)
	if err != nil {
		return nil, mapRepoErr(s.log, "update dish", err)
	}
	resp := response_models.NewDishResponse(dish)
	return &resp, nil
}

func (s *CafeteriaService) DeleteDish(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return err
	}
	return mapRepoErr(s.log, "delete dish", s.menuRepo.DeleteDish(ctx, id))
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, utils.ValidationError("from must be a YYYY-MM-DD date")
	}
	end, err := utils.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, utils.ValidationError("to must be a YYYY-MM-DD date")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, utils.ValidationError("from must not be after to")
	}
	return start, end, nil
}

func (s *CafeteriaService) listSales(ctx context.Context, caller auth.Identity, query request_models.SalesRangeQuery) ([]db_models.Sale, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(query); err != nil {
		return nil, err
	}
	from, to, err := parseDateRange(query.From, query.To)
	if err != nil {
		return nil, err
	}

	sales, err := s.cardRepo.ListSales(ctx, from, to)
	if err != nil {
		return nil, mapRepoErr(s.log, "list sales", err)
	}
	return sales, nil
}

func (s *CafeteriaService) ListSales(ctx context.Context, caller auth.Identity, query request_models.SalesRangeQuery) ([]response_models.SaleResponse, error) {
	sales, err := s.listSales(ctx, caller, query)
	if err != nil {
		return nil, err
	}
	out := make([]response_models.SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, response_models.NewSaleResponse(&sales[i]))
	}
	return out, nil
}

// PurgeExpiredQRCodes drops unredeemed codes that expired more than retention
// ago. Redemption never relies on it.
func (s *CafeteriaService) PurgeExpiredQRCodes(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	n, err := s.cardRepo.PurgeExpiredQRCodes(ctx, cutoff)
	if err != nil {
		return 0, mapRepoErr(s.log, "purge qr codes", err)
	}
	return n, nil
}
