package request_models

import (
	"time"

	"github.com/google/uuid"

	"allinbee/internal/models/db_models"
)

type SportPayload struct {
	SportType string    `json:"sport_type" binding:"required,max=100"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type HealthPayload struct {
	HealthType string    `json:"health_type" binding:"required,max=100"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
}

type BookLine struct {
	Isbn     string `json:"isbn" binding:"required,max=32"`
	Quantity int    `json:"quantity" binding:"required,gte=1"`
}

// CreateAppointmentRequest is discriminated by Type: exactly the matching
// payload must be set.
type CreateAppointmentRequest struct {
	Type    db_models.AppointmentType `json:"type" binding:"required,oneof=Book Sport Health"`
	Date    time.Time                 `json:"date" binding:"required"`
	StaffID uuid.UUID                 `json:"staff_id" binding:"required"`
	Sport   *SportPayload             `json:"sport"`
	Health  *HealthPayload            `json:"health"`
	Books   []BookLine                `json:"books" binding:"omitempty,dive"`
}

type UpdateAppointmentRequest struct {
	Status    *db_models.AppointmentStatus `json:"status" binding:"omitempty,oneof=Scheduled Completed Cancelled NoShow"`
	Date      *time.Time                   `json:"date"`
	StaffID   *uuid.UUID                   `json:"staff_id"`
	StartTime *time.Time                   `json:"start_time"`
	EndTime   *time.Time                   `json:"end_time"`
}

func (r UpdateAppointmentRequest) TouchesOnlyStatus() bool {
	return r.Date == nil && r.StaffID == nil && r.StartTime == nil && r.EndTime == nil
}

type ListAppointmentsQuery struct {
	PageQuery
	Status string `form:"status" binding:"omitempty,oneof=Scheduled Completed Cancelled NoShow"`
	Type   string `form:"type" binding:"omitempty,oneof=Book Sport Health"`
}

type AdminListAppointmentsQuery struct {
	ListAppointmentsQuery
	StudentID string `form:"studentId" binding:"omitempty,uuid"`
	StaffID   string `form:"staffId" binding:"omitempty,uuid"`
	From      string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

type CreateBookRequest struct {
	Isbn            string `json:"isbn" binding:"required,max=32"`
	Title           string `json:"title" binding:"required,max=300"`
	Author          string `json:"author" binding:"max=200"`
	QuantityInStock int    `json:"quantity_in_stock" binding:"gte=0"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=300"`
	Author          *string `json:"author" binding:"omitempty,max=200"`
	QuantityInStock *int    `json:"quantity_in_stock" binding:"omitempty,gte=0"`
}

type ListBooksQuery struct {
	PageQuery
	Search string `form:"search" binding:"omitempty,max=100"`
}
