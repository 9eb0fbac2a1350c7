package db_models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
	AppointmentNoShow    AppointmentStatus = "NoShow"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further status change is allowed.
func (s AppointmentStatus) IsTerminal() bool {
	return s != AppointmentScheduled
}

// ReleasesBooks reports whether entering this status hands borrowed books back.
func (s AppointmentStatus) ReleasesBooks() bool {
	return s == AppointmentCancelled || s == AppointmentNoShow
}

type AppointmentType string

const (
	AppointmentTypeBook   AppointmentType = "Book"
	AppointmentTypeSport  AppointmentType = "Sport"
	AppointmentTypeHealth AppointmentType = "Health"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentTypeBook, AppointmentTypeSport, AppointmentTypeHealth:
		return true
	}
	return false
}

// Appointment owns exactly one payload matching Type: a sport slot, a health
// slot, or one or more book borrow records.
type Appointment struct {
	BaseModel
	StudentID uuid.UUID         `gorm:"type:uuid;not null;index" json:"student_id"`
	StaffID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"staff_id"`
	Type      AppointmentType   `gorm:"size:16;not null;index" json:"type"`
	Date      time.Time         `gorm:"not null;index" json:"date"`
	Status    AppointmentStatus `gorm:"size:16;not null;index" json:"status"`

	Sport       *SportAppointment  `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"sport,omitempty"`
	Health      *HealthAppointment `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"health,omitempty"`
	BookBorrows []BookBorrowRecord `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"book_borrows,omitempty"`
}

type SportAppointment struct {
	AppointmentID uuid.UUID `gorm:"type:uuid;primaryKey" json:"appointment_id"`
	SportType     string    `gorm:"not null" json:"sport_type"`
	StartTime     time.Time `gorm:"not null" json:"start_time"`
	EndTime       time.Time `gorm:"not null" json:"end_time"`
}

type HealthAppointment struct {
	AppointmentID uuid.UUID `gorm:"type:uuid;primaryKey" json:"appointment_id"`
	HealthType    string    `gorm:"not null" json:"health_type"`
	StartTime     time.Time `gorm:"not null" json:"start_time"`
	EndTime       time.Time `gorm:"not null" json:"end_time"`
}

type Book struct {
	Isbn            string `gorm:"primaryKey;size:32" json:"isbn"`
	Title           string `gorm:"not null" json:"title"`
	Author          string `json:"author"`
	QuantityInStock int    `gorm:"not null" json:"quantity_in_stock"`
	CurrentQuantity int    `gorm:"not null" json:"current_quantity"`
	CreatedAt       int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       int64  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BookBorrowRecord is open while ReturnDate is nil.
type BookBorrowRecord struct {
	BookIsbn      string     `gorm:"primaryKey;size:32" json:"book_isbn"`
	AppointmentID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"appointment_id"`
	Quantity      int        `gorm:"not null" json:"quantity"`
	BorrowDate    time.Time  `gorm:"not null" json:"borrow_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`

	Book *Book `gorm:"foreignKey:BookIsbn;references:Isbn;constraint:OnDelete:CASCADE" json:"book,omitempty"`
}

func (r *BookBorrowRecord) IsOpen() bool { return r.ReturnDate == nil }
