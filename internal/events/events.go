package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AppointmentCreated       = "appointments.created"
	AppointmentStatusChanged = "appointments.status_changed"
	PaymentProcessed         = "cafeteria.payment_processed"
	DepositRecorded          = "cafeteria.deposit_recorded"
)

// Event is the envelope written to the broker. Payload is marshalled as JSON.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events after the owning transaction committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

type AppointmentCreatedPayload struct {
	AppointmentID string `json:"appointment_id"`
	StudentID     string `json:"student_id"`
	StaffID       string `json:"staff_id"`
	Type          string `json:"type"`
	Date          string `json:"date"`
}

type AppointmentStatusChangedPayload struct {
	AppointmentID string `json:"appointment_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	BooksReturned int    `json:"books_returned"`
}

type PaymentProcessedPayload struct {
	QRCodeID string `json:"qr_code_id"`
	CardNo   string `json:"card_no"`
	MenuID   string `json:"menu_id"`
	Amount   string `json:"amount"`
	Balance  string `json:"balance"`
	SaleDate string `json:"sale_date"`
}

type DepositRecordedPayload struct {
	CardNo  string `json:"card_no"`
	Amount  string `json:"amount"`
	Balance string `json:"balance"`
}

// Emit publishes with the caller's context and only logs failures, a broker
// outage never fails the request that produced the event.
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, event Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
