package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"allinbee/internal/models/db_models"
	"allinbee/pkg/utils"
)

type BookLoan struct {
	Isbn     string
	Quantity int
}

type NewAppointment struct {
	StudentID uuid.UUID
	StaffID   uuid.UUID
	Type      db_models.AppointmentType
	Date      time.Time
	Sport     *db_models.SportAppointment
	Health    *db_models.HealthAppointment
	Books     []BookLoan
}

type AppointmentChanges struct {
	Status    *db_models.AppointmentStatus
	Date      *time.Time
	StaffID   *uuid.UUID
	StartTime *time.Time
	EndTime   *time.Time
}

// StatusTransition is reported when an update actually moved the status.
type StatusTransition struct {
	From          db_models.AppointmentStatus
	To            db_models.AppointmentStatus
	BooksReturned int
}

type AppointmentFilter struct {
	StudentID     *uuid.UUID
	StaffID       *uuid.UUID
	ParticipantID *uuid.UUID
	Status        db_models.AppointmentStatus
	Type          db_models.AppointmentType
	From          *time.Time
	To            *time.Time
	Offset        int
	Limit         int
}

type AppointmentRepository interface {
	Create(ctx context.Context, in NewAppointment, now time.Time) (*db_models.Appointment, error)
	Find(ctx context.Context, id uuid.UUID) (*db_models.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, changes AppointmentChanges, authorize func(*db_models.Appointment) error, now time.Time) (*db_models.Appointment, *StatusTransition, error)
	ReturnBooks(ctx context.Context, id uuid.UUID, now time.Time) (*db_models.Appointment, int, error)
	List(ctx context.Context, filter AppointmentFilter) ([]db_models.Appointment, int64, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func appointmentDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Sport").Preload("Health").
		Preload("BookBorrows", func(db *gorm.DB) *gorm.DB { return db.Order("book_isbn") }).
		Preload("BookBorrows.Book")
}

func findAppointment(tx *gorm.DB, id uuid.UUID) (*db_models.Appointment, error) {
	var appt db_models.Appointment
	err := tx.Scopes(appointmentDetails).First(&appt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appt, nil
}

func requireStaffTx(tx *gorm.DB, staffID uuid.UUID) error {
	var n int64
	if err := tx.Model(&db_models.Staff{}).Where("user_id = ?", staffID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrStaffNotFound
	}
	return nil
}

// Create books the appointment and its payload. For book appointments every
// stock decrement is guarded; the first shortfall aborts the whole booking.
func (r *appointmentRepository) Create(ctx context.Context, in NewAppointment, now time.Time) (*db_models.Appointment, error) {
	var created *db_models.Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStudentTx(tx, in.StudentID); err != nil {
			return err
		}
		if err := requireStaffTx(tx, in.StaffID); err != nil {
			return err
		}

		appt := db_models.Appointment{
			StudentID: in.StudentID,
			StaffID:   in.StaffID,
			Type:      in.Type,
			Date:      in.Date,
			Status:    db_models.AppointmentScheduled,
		}
		if err := tx.Omit(clause.Associations).Create(&appt).Error; err != nil {
			return err
		}

		switch in.Type {
		case db_models.AppointmentTypeSport:
			sport := *in.Sport
			sport.AppointmentID = appt.ID
			if err := tx.Create(&sport).Error; err != nil {
				return err
			}
		case db_models.AppointmentTypeHealth:
			health := *in.Health
			health.AppointmentID = appt.ID
			if err := tx.Create(&health).Error; err != nil {
				return err
			}
		case db_models.AppointmentTypeBook:
			if err := borrowBooksTx(tx, appt.ID, in.Books, now); err != nil {
				return err
			}
		}

		a, err := findAppointment(tx, appt.ID)
		created = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func borrowBooksTx(tx *gorm.DB, appointmentID uuid.UUID, loans []BookLoan, now time.Time) error {
	// fixed order so concurrent bookings lock books the same way
	sorted := append([]BookLoan(nil), loans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Isbn < sorted[j].Isbn })

	for _, loan := range sorted {
		res := tx.Model(&db_models.Book{}).
			Where("isbn = ? AND current_quantity >= ?", loan.Isbn, loan.Quantity).
			Update("current_quantity", gorm.Expr("current_quantity - ?", loan.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&db_models.Book{}).Where("isbn = ?", loan.Isbn).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: %s", utils.ErrBookNotFound, loan.Isbn)
			}
			return fmt.Errorf("%w: isbn %s, requested %d", utils.ErrInsufficientStock, loan.Isbn, loan.Quantity)
		}

		record := db_models.BookBorrowRecord{
			BookIsbn:      loan.Isbn,
			AppointmentID: appointmentID,
			Quantity:      loan.Quantity,
			BorrowDate:    now.UTC(),
		}
		if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

// releaseBorrowsTx closes every open borrow of the appointment and puts the
// copies back. The return stamp is guarded so a record is never released twice.
func releaseBorrowsTx(tx *gorm.DB, appointmentID uuid.UUID, now time.Time) (int, error) {
	var open []db_models.BookBorrowRecord
	err := tx.Where("appointment_id = ? AND return_date IS NULL", appointmentID).
		Order("book_isbn").
		Find(&open).Error
	if err != nil {
		return 0, err
	}

	returned := 0
	stamp := now.UTC()
	for _, rec := range open {
		res := tx.Model(&db_models.BookBorrowRecord{}).
			Where("appointment_id = ? AND book_isbn = ? AND return_date IS NULL", appointmentID, rec.BookIsbn).
			Update("return_date", stamp)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		err := tx.Model(&db_models.Book{}).
			Where("isbn = ?", rec.BookIsbn).
			Update("current_quantity", gorm.Expr("current_quantity + ?", rec.Quantity)).Error
		if err != nil {
			return 0, err
		}
		returned += rec.Quantity
	}
	return returned, nil
}

func (r *appointmentRepository) Find(ctx context.Context, id uuid.UUID) (*db_models.Appointment, error) {
	return findAppointment(r.db.WithContext(ctx), id)
}

func (r *appointmentRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	changes AppointmentChanges,
	authorize func(*db_models.Appointment) error,
	now time.Time,
) (*db_models.Appointment, *StatusTransition, error) {

	var (
		updated    *db_models.Appointment
		transition *StatusTransition
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appt db_models.Appointment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Sport").Preload("Health").
			First(&appt, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrAppointmentNotFound
			}
			return err
		}

		if authorize != nil {
			if err := authorize(&appt); err != nil {
				return err
			}
		}

		fields := map[string]interface{}{}
		if changes.Date != nil {
			fields["date"] = changes.Date.UTC()
		}
		if changes.StaffID != nil && *changes.StaffID != appt.StaffID {
			if err := requireStaffTx(tx, *changes.StaffID); err != nil {
				return err
			}
			fields["staff_id"] = *changes.StaffID
		}
		if len(fields) > 0 {
			if err := tx.Model(&db_models.Appointment{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}

		if changes.StartTime != nil || changes.EndTime != nil {
			if err := rescheduleSlotTx(tx, &appt, changes.StartTime, changes.EndTime); err != nil {
				return err
			}
		}

		if changes.Status != nil && *changes.Status != appt.Status {
			t, err := changeStatusTx(tx, &appt, *changes.Status, now)
			if err != nil {
				return err
			}
			transition = t
		}

		a, err := findAppointment(tx, id)
		updated = a
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, transition, nil
}

func rescheduleSlotTx(tx *gorm.DB, appt *db_models.Appointment, start, end *time.Time) error {
	var (
		model            interface{}
		curStart, curEnd time.Time
	)
	switch {
	case appt.Type == db_models.AppointmentTypeSport && appt.Sport != nil:
		model, curStart, curEnd = &db_models.SportAppointment{}, appt.Sport.StartTime, appt.Sport.EndTime
	case appt.Type == db_models.AppointmentTypeHealth && appt.Health != nil:
		model, curStart, curEnd = &db_models.HealthAppointment{}, appt.Health.StartTime, appt.Health.EndTime
	default:
		return fmt.Errorf("%w: %s appointments have no time slot", utils.ErrAppointmentTypeFields, appt.Type)
	}

	if start != nil {
		curStart = start.UTC()
	}
	if end != nil {
		curEnd = end.UTC()
	}
	if !curEnd.After(curStart) {
		return utils.ValidationError("end time must be after start time")
	}

	return tx.Model(model).Where("appointment_id = ?", appt.ID).
		Updates(map[string]interface{}{"start_time": curStart, "end_time": curEnd}).Error
}

// changeStatusTx only moves appointments out of Scheduled; every other
// status is final. Cancelled and NoShow hand borrowed books back.
func changeStatusTx(tx *gorm.DB, appt *db_models.Appointment, to db_models.AppointmentStatus, now time.Time) (*StatusTransition, error) {
	if appt.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: appointment is %s", utils.ErrAppointmentFinalized, appt.Status)
	}

	res := tx.Model(&db_models.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, db_models.AppointmentScheduled).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrAppointmentFinalized
	}

	t := &StatusTransition{From: appt.Status, To: to}
	if to.ReleasesBooks() {
		n, err := releaseBorrowsTx(tx, appt.ID, now)
		if err != nil {
			return nil, err
		}
		t.BooksReturned = n
	}
	return t, nil
}

// ReturnBooks is the library desk check-in: it closes the open borrows of a
// book appointment that was not cancelled.
func (r *appointmentRepository) ReturnBooks(ctx context.Context, id uuid.UUID, now time.Time) (*db_models.Appointment, int, error) {
	var (
		updated  *db_models.Appointment
		returned int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appt db_models.Appointment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&appt, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrAppointmentNotFound
			}
			return err
		}
		if appt.Type != db_models.AppointmentTypeBook {
			return utils.ErrNotABookAppointment
		}

		n, err := releaseBorrowsTx(tx, id, now)
		if err != nil {
			return err
		}
		returned = n

		a, err := findAppointment(tx, id)
		updated = a
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return updated, returned, nil
}

func (r *appointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]db_models.Appointment, int64, error) {
	q := r.db.WithContext(ctx).Model(&db_models.Appointment{})
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.StaffID != nil {
		q = q.Where("staff_id = ?", *f.StaffID)
	}
	if f.ParticipantID != nil {
		q = q.Where("student_id = ? OR staff_id = ?", *f.ParticipantID, *f.ParticipantID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("appointments.type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("appointments.date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("appointments.date < ?", f.To.UTC())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []db_models.Appointment
	err := q.Scopes(appointmentDetails).
		Order("appointments.date DESC").Order("id").
		Offset(f.Offset).Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
