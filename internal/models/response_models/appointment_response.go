package response_models

import (
	"time"

	"github.com/google/uuid"

	"allinbee/internal/models/db_models"
)

type TimeSlotResponse struct {
	Label     string    `json:"label"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type BorrowResponse struct {
	Isbn       string     `json:"isbn"`
	Title      string     `json:"title,omitempty"`
	Quantity   int        `json:"quantity"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

type AppointmentResponse struct {
	ID        uuid.UUID                   `json:"id"`
	StudentID uuid.UUID                   `json:"student_id"`
	StaffID   uuid.UUID                   `json:"staff_id"`
	Type      db_models.AppointmentType   `json:"type"`
	Date      time.Time                   `json:"date"`
	Status    db_models.AppointmentStatus `json:"status"`
	Sport     *TimeSlotResponse           `json:"sport,omitempty"`
	Health    *TimeSlotResponse           `json:"health,omitempty"`
	Books     []BorrowResponse            `json:"books,omitempty"`
	CreatedAt int64                       `json:"created_at"`
}

func NewAppointmentResponse(a *db_models.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:        a.ID,
		StudentID: a.StudentID,
		StaffID:   a.StaffID,
		Type:      a.Type,
		Date:      a.Date,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
	if a.Sport != nil {
		resp.Sport = &TimeSlotResponse{Label: a.Sport.SportType, StartTime: a.Sport.StartTime, EndTime: a.Sport.EndTime}
	}
	if a.Health != nil {
		resp.Health = &TimeSlotResponse{Label: a.Health.HealthType, StartTime: a.Health.StartTime, EndTime: a.Health.EndTime}
	}
	for _, b := range a.BookBorrows {
		br := BorrowResponse{
			Isbn:       b.BookIsbn,
			Quantity:   b.Quantity,
			BorrowDate: b.BorrowDate,
			ReturnDate: b.ReturnDate,
		}
		if b.Book != nil {
			br.Title = b.Book.Title
		}
		resp.Books = append(resp.Books, br)
	}
	return resp
}

type BookResponse struct {
	Isbn            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	QuantityInStock int    `json:"quantity_in_stock"`
	CurrentQuantity int    `json:"current_quantity"`
}

func NewBookResponse(b *db_models.Book) BookResponse {
	return BookResponse{
		Isbn:            b.Isbn,
		Title:           b.Title,
		Author:          b.Author,
		QuantityInStock: b.QuantityInStock,
		CurrentQuantity: b.CurrentQuantity,
	}
}
