package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"allinbee/internal/models/request_models"
	"allinbee/internal/services"
	"allinbee/pkg/utils"
)

type AccountController struct {
	accountService services.AccountServiceInterface
}

func NewAccountController(accountService services.AccountServiceInterface) *AccountController {
	return &AccountController{
		accountService: accountService,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Create a new user account
// @Tags Users
// @Accept json
// @Produce json
// @Param request body request_models.RegisterRequest true "Account registration payload"
// @Success 201 {object} utils.APIResponse{data=response_models.RegisterResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /users/register [post]
func (a *AccountController) Register(c *gin.Context) {
	var req request_models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := a.accountService.Register(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondWithStatus(c, http.StatusCreated, resp, "Account created successfully")
}

// Login godoc
// @Summary Login to an account
// @Description Authenticate a user and return a bearer token
// @Tags Users
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse{data=response_models.LoginResponse}
// @Failure 401 {object} utils.APIResponse
// @Router /users/login [post]
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := a.accountService.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, token, "Login successful")
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} utils.APIResponse{data=response_models.UserResponse}
// @Security BearerAuth
// @Router /users/me [get]
func (a *AccountController) Me(c *gin.Context) {
	user, err := a.accountService.Me(c.Request.Context(), caller(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, user, "User fetched successfully")
}

// ListStaff godoc
// @Summary Staff directory
// @Description Staff members that can be booked for appointments
// @Tags Users
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.StaffResponse}
// @Security BearerAuth
// @Router /users/staff [get]
func (a *AccountController) ListStaff(c *gin.Context) {
	staff, err := a.accountService.ListStaff(c.Request.Context(), caller(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, staff, "Staff fetched successfully")
}

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20) minimum(1) maximum(100)
// @Param search query string false "Email or name fragment"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users [get]
func (a *AccountController) ListUsers(c *gin.Context) {
	var query request_models.ListUsersQuery
	if !bindQuery(c, &query) {
		return
	}

	users, err := a.accountService.ListUsers(c.Request.Context(), caller(c), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, users, "Users fetched successfully")
}

// GetUser godoc
// @Summary Get a user
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.APIResponse{data=response_models.UserResponse}
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (a *AccountController) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := a.accountService.GetUser(c.Request.Context(), caller(c), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, user, "User fetched successfully")
}

// CreateUser godoc
// @Summary Create a user with roles
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.CreateUserRequest true "User and role flags"
// @Success 201 {object} utils.APIResponse{data=response_models.UserResponse}
// @Security BearerAuth
// @Router /users [post]
func (a *AccountController) CreateUser(c *gin.Context) {
	var req request_models.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.accountService.CreateUser(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, user, "User created successfully")
}

// UpdateUser godoc
// @Summary Update a user and grant or revoke roles
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body request_models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.UserResponse}
// @Security BearerAuth
// @Router /users/{id} [patch]
func (a *AccountController) UpdateUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.accountService.UpdateUser(c.Request.Context(), caller(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, user, "User updated successfully")
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags Admin
// @Param id path string true "User ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (a *AccountController) DeleteUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := a.accountService.DeleteUser(c.Request.Context(), caller(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "User deleted successfully")
}
