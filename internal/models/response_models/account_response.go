package response_models

import (
	"github.com/google/uuid"

	"allinbee/internal/models/db_models"
)

type RegisterResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Name        string     `json:"name"`
	Phone       *string    `json:"phone,omitempty"`
	IsStudent   bool       `json:"is_student"`
	IsStaff     bool       `json:"is_staff"`
	IsAdmin     bool       `json:"is_admin"`
	ManagedByID *uuid.UUID `json:"managed_by_id,omitempty"`
	CreatedAt   int64      `json:"created_at"`
}

type StaffResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func NewUserResponse(u *db_models.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.FullName(),
		Phone:     u.Phone,
		IsStudent: u.Student != nil,
		IsStaff:   u.Staff != nil,
		IsAdmin:   u.Admin != nil,
		CreatedAt: u.CreatedAt,
	}
	// first role record that names a manager wins
	switch {
	case u.Student != nil && u.Student.ManagedByID != nil:
		resp.ManagedByID = u.Student.ManagedByID
	case u.Staff != nil && u.Staff.ManagedByID != nil:
		resp.ManagedByID = u.Staff.ManagedByID
	case u.Admin != nil && u.Admin.ManagedByID != nil:
		resp.ManagedByID = u.Admin.ManagedByID
	}
	return resp
}
