package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"allinbee/internal/models/request_models"
	"allinbee/internal/services"
	"allinbee/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CafeteriaController struct {
	cafeteriaService services.CafeteriaServiceInterface
}

func NewCafeteriaController(cafeteriaService services.CafeteriaServiceInterface) *CafeteriaController {
	return &CafeteriaController{
		cafeteriaService: cafeteriaService,
	}
}

// GetMyDigitalCard godoc
// @Summary Get my digital card
// @Description Returns the caller's card, issuing one on first use
// @Tags Cafeteria
// @Produce json
// @Success 200 {object} utils.APIResponse{data=response_models.DigitalCardResponse}
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /cafeteria/card [get]
func (cc *CafeteriaController) GetMyDigitalCard(c *gin.Context) {
	card, err := cc.cafeteriaService.GetMyDigitalCard(c.Request.Context(), caller(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, card, "Card fetched successfully")
}

// RecordDeposit godoc
// @Summary Top up a digital card
// @Tags Cafeteria
// @Accept json
// @Produce json
// @Param request body request_models.DepositRequest true "Deposit"
// @Success 200 {object} utils.APIResponse{data=response_models.DigitalCardResponse}
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /cafeteria/card/deposits [post]
func (cc *CafeteriaController) RecordDeposit(c *gin.Context) {
	var req request_models.DepositRequest
	if !bindJSON(c, &req) {
		return
	}

	card, err := cc.cafeteriaService.RecordDeposit(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, card, "Deposit recorded successfully")
}

// GeneratePaymentQRCode godoc
// @Summary Generate a payment QR code
// @Description Issues a single-use code valid for five minutes
// @Tags Cafeteria
// @Accept json
// @Produce json
// @Param request body request_models.GenerateQRCodeRequest false "Optional menu binding"
// @Success 201 {object} utils.APIResponse{data=response_models.QRCodeResponse}
// @Security BearerAuth
// @Router /cafeteria/qr-codes [post]
func (cc *CafeteriaController) GeneratePaymentQRCode(c *gin.Context) {
	var req request_models.GenerateQRCodeRequest
	// The body is optional.
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	code, err := cc.cafeteriaService.GeneratePaymentQRCode(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, code, "QR code generated successfully")
}

// ProcessQRCodePayment godoc
// @Summary Redeem a QR code for a menu
// @Tags Cafeteria
// @Accept json
// @Produce json
// @Param request body request_models.ProcessPaymentRequest true "Code and menu"
// @Success 200 {object} utils.APIResponse{data=response_models.PaymentResponse}
// @Failure 409 {object} utils.APIResponse
// @Failure 422 {object} utils.APIResponse
// @Security BearerAuth
// @Router /cafeteria/payments [post]
func (cc *CafeteriaController) ProcessQRCodePayment(c *gin.Context) {
	var req request_models.ProcessPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := cc.cafeteriaService.ProcessQRCodePayment(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, payment, "Payment processed successfully")
}

// ListMenus godoc
// @Summary List menus
// @Tags Cafeteria
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.MenuResponse}
// @Router /cafeteria/menus [get]
func (cc *CafeteriaController) ListMenus(c *gin.Context) {
	menus, err := cc.cafeteriaService.ListMenus(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, menus, "Menus fetched successfully")
}

// GetMenu godoc
// @Summary Get a menu
// @Tags Cafeteria
// @Produce json
// @Param id path string true "Menu ID"
// @Success 200 {object} utils.APIResponse{data=response_models.MenuResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /cafeteria/menus/{id} [get]
func (cc *CafeteriaController) GetMenu(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	menu, err := cc.cafeteriaService.GetMenu(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, menu, "Menu fetched successfully")
}

// CreateMenu godoc
// @Summary Create a menu
// @Tags Cafeteria
// @Accept json
// @Produce json
// @Param request body request_models.CreateMenuRequest true "Menu"
// @Success 201 {object} utils.APIResponse{data=response_models.MenuResponse}
// @Security BearerAuth
// @Router /cafeteria/menus [post]
func (cc *CafeteriaController) CreateMenu(c *gin.Context) {
	var req request_models.CreateMenuRequest
	if !bindJSON(c, &req) {
		return
	}

	menu, err := cc.cafeteriaService.CreateMenu(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, menu, "Menu created successfully")
}

// UpdateMenu godoc
// @Summary Update a menu
// @Tags Cafeteria
// @Accept json
// @Produce json
// @Param id path string true "Menu ID"
// @Param request body request_models.UpdateMenuRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.MenuResponse}
// @Security BearerAuth
// @Router /cafeteria/menus/{id} [patch]
func (cc *CafeteriaController) UpdateMenu(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateMenuRequest
	if !bindJSON(c, &req) {
		return
	}

	menu, err := cc.cafeteriaService.UpdateMenu(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, menu, "Menu updated successfully")
}

// DeleteMenu godoc
// @Summary Delete a menu
// @Tags Cafeteria
// @Param id path string true "Menu ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /cafeteria/menus/{id} [delete]
func (cc *CafeteriaController) DeleteMenu(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := cc.cafeteriaService.DeleteMenu(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Menu deleted successfully")
}

// ListDishes godoc
// @Summary List dishes
// @Tags Cafeteria
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.DishResponse}
// @Router /cafeteria/dishes [get]
func (cc *CafeteriaController) ListDishes(c *gin.Context) {
	dishes, err := cc.cafeteriaService.ListDishes(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, dishes, "Dishes fetched successfully")
}

// CreateDish godoc
// @Summary Create a dish
// @Tags Cafeteria
// @Accept json
// @Produce json
// @Param request body request_models.CreateDishRequest true "Dish"
// @Success 201 {object} utils.APIResponse{data=response_models.DishResponse}
// @Security BearerAuth
// @Router /cafeteria/dishes [post]
func (cc *CafeteriaController) CreateDish(c *gin.Context) {
	var req request_models.CreateDishRequest
	if !bindJSON(c, &req) {
		return
	}

	dish, err := cc.cafeteriaService.CreateDish(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, dish, "Dish created successfully")
}

// UpdateDish godoc
// @Summary Update a dish
// @Tags Cafeteria
// @Accept json
// @Produce json
// @Param id path string true "Dish ID"
// @Param request body request_models.UpdateDishRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.DishResponse}
// @Security BearerAuth
// @Router /cafeteria/dishes/{id} [patch]
func (cc *CafeteriaController) UpdateDish(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateDishRequest
	if !bindJSON(c, &req) {
		return
	}

	dish, err := cc.cafeteriaService.UpdateDish(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, dish, "Dish updated successfully")
}

// DeleteDish godoc
// @Summary Delete a dish
// @Tags Cafeteria
// @Param id path string true "Dish ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /cafeteria/dishes/{id} [delete]
func (cc *CafeteriaController) DeleteDish(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := cc.cafeteriaService.DeleteDish(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Dish deleted successfully")
}

// ListSales godoc
// @Summary Daily menu sales
// @Tags Cafeteria
// @Produce json
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Success 200 {object} utils.APIResponse{data=[]response_models.SaleResponse}
// @Security BearerAuth
// @Router /cafeteria/sales [get]
func (cc *CafeteriaController) ListSales(c *gin.Context) {
	var query request_models.SalesRangeQuery
	if !bindQuery(c, &query) {
		return
	}

	sales, err := cc.cafeteriaService.ListSales(c.Request.Context(), caller(c), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, sales, "Sales fetched successfully")
}

// ExportSalesReport godoc
// @Summary Download daily sales as a spreadsheet
// @Tags Cafeteria
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /cafeteria/sales/export [get]
func (cc *CafeteriaController) ExportSalesReport(c *gin.Context) {
	var query request_models.SalesRangeQuery
	if !bindQuery(c, &query) {
		return
	}

	report, err := cc.cafeteriaService.ExportSalesReport(c.Request.Context(), caller(c), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	c.Data(http.StatusOK, xlsxContentType, report.Content)
}
