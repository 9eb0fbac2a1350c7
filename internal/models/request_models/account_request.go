package request_models

import "github.com/google/uuid"

type RegisterRequest struct {
	Email     string  `json:"email" binding:"required,email,max=255"`
	Password  string  `json:"password" binding:"required,min=8,max=72"`
	FirstName string  `json:"first_name" binding:"required,max=100"`
	LastName  string  `json:"last_name" binding:"required,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ListUsersQuery struct {
	PageQuery
	Search string `form:"search" binding:"omitempty,max=100"`
}

// CreateUserRequest is the admin form: a registration plus role flags.
type CreateUserRequest struct {
	RegisterRequest
	IsStudent   bool       `json:"is_student"`
	IsStaff     bool       `json:"is_staff"`
	IsAdmin     bool       `json:"is_admin"`
	ManagedByID *uuid.UUID `json:"managed_by_id"`
}

// UpdateUserRequest changes only the fields that are present. A role flag set
// to true grants the role, false revokes it.
type UpdateUserRequest struct {
	Email       *string    `json:"email" binding:"omitempty,email,max=255"`
	Password    *string    `json:"password" binding:"omitempty,min=8,max=72"`
	FirstName   *string    `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName    *string    `json:"last_name" binding:"omitempty,min=1,max=100"`
	Phone       *string    `json:"phone" binding:"omitempty,max=32"`
	IsStudent   *bool      `json:"is_student"`
	IsStaff     *bool      `json:"is_staff"`
	IsAdmin     *bool      `json:"is_admin"`
	ManagedByID *uuid.UUID `json:"managed_by_id"`
}
