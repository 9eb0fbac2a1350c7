package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"allinbee/internal/models/request_models"
	"allinbee/internal/services"
	"allinbee/pkg/utils"
)

type AppointmentController struct {
	appointmentService services.AppointmentServiceInterface
}

func NewAppointmentController(appointmentService services.AppointmentServiceInterface) *AppointmentController {
	return &AppointmentController{
		appointmentService: appointmentService,
	}
}

// CreateAppointment godoc
// @Summary Book an appointment
// @Description Book, Sport or Health appointment with a staff member. Book appointments reserve stock.
// @Tags Appointments
// @Accept json
// @Produce json
// @Param request body request_models.CreateAppointmentRequest true "Appointment"
// @Success 201 {object} utils.APIResponse{data=response_models.AppointmentResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 422 {object} utils.APIResponse
// @Security BearerAuth
// @Router /appointments [post]
func (ac *AppointmentController) CreateAppointment(c *gin.Context) {
	var req request_models.CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	appointment, err := ac.appointmentService.CreateAppointment(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, appointment, "Appointment created successfully")
}

// GetAppointment godoc
// @Summary Get an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} utils.APIResponse{data=response_models.AppointmentResponse}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /appointments/{id} [get]
func (ac *AppointmentController) GetAppointment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	appointment, err := ac.appointmentService.GetAppointment(c.Request.Context(), caller(c), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, appointment, "Appointment fetched successfully")
}

// UpdateAppointment godoc
// @Summary Update an appointment
// @Description Owners may only cancel. Staff and admins may reschedule or settle the status.
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body request_models.UpdateAppointmentRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.AppointmentResponse}
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /appointments/{id} [patch]
func (ac *AppointmentController) UpdateAppointment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	appointment, err := ac.appointmentService.UpdateAppointment(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, appointment, "Appointment updated successfully")
}

// CancelAppointment godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} utils.APIResponse{data=response_models.AppointmentResponse}
// @Security BearerAuth
// @Router /appointments/{id}/cancel [post]
func (ac *AppointmentController) CancelAppointment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	appointment, err := ac.appointmentService.CancelAppointment(c.Request.Context(), caller(c), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, appointment, "Appointment cancelled successfully")
}

// ReturnBooks godoc
// @Summary Record the return of borrowed books
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} utils.APIResponse{data=response_models.AppointmentResponse}
// @Security BearerAuth
// @Router /appointments/{id}/return [post]
func (ac *AppointmentController) ReturnBooks(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	appointment, err := ac.appointmentService.ReturnBooks(c.Request.Context(), caller(c), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, appointment, "Books returned successfully")
}

// ListMyAppointments godoc
// @Summary My appointments
// @Description Appointments where the caller is the student or the staff member
// @Tags Appointments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /appointments/me [get]
func (ac *AppointmentController) ListMyAppointments(c *gin.Context) {
	var query request_models.ListAppointmentsQuery
	if !bindQuery(c, &query) {
		return
	}

	page, err := ac.appointmentService.ListMyAppointments(c.Request.Context(), caller(c), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Appointments fetched successfully")
}

// AdminListAllAppointments godoc
// @Summary All appointments
// @Tags Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param studentId query string false "Student ID"
// @Param staffId query string false "Staff ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day, inclusive (YYYY-MM-DD)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /appointments [get]
func (ac *AppointmentController) AdminListAllAppointments(c *gin.Context) {
	var query request_models.AdminListAppointmentsQuery
	if !bindQuery(c, &query) {
		return
	}

	page, err := ac.appointmentService.AdminListAllAppointments(c.Request.Context(), caller(c), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Appointments fetched successfully")
}
