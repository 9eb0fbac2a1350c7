package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"allinbee/internal/auth"
	"allinbee/internal/events"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/internal/models/response_models"
	"allinbee/pkg/utils"
)

func seedBook(t *testing.T, books *BookService, staff auth.Identity, isbn string, qty int) {
	t.Helper()
	_, err := books.CreateBook(context.Background(), staff, request_models.CreateBookRequest{Isbn: isbn, Title: "Title " + isbn, QuantityInStock: qty})
	require.NoError(t, err)
}

func shelf(t *testing.T, db *gorm.DB, isbn string) int {
	t.Helper()
	var b db_models.Book
	require.NoError(t, db.First(&b, "isbn = ?", isbn).Error)
	return b.CurrentQuantity
}

func bookAppointment(staffID uuid.UUID, lines ...request_models.BookLine) request_models.CreateAppointmentRequest {
	return request_models.CreateAppointmentRequest{
		Type:    db_models.AppointmentTypeBook,
		Date:    fixedNow.Add(24 * time.Hour),
		StaffID: staffID,
		Books:   lines,
	}
}

func sportAppointment(staffID uuid.UUID) request_models.CreateAppointmentRequest {
	start := fixedNow.Add(48 * time.Hour)
	return request_models.CreateAppointmentRequest{
		Type:    db_models.AppointmentTypeSport,
		Date:    start,
		StaffID: staffID,
		Sport:   &request_models.SportPayload{SportType: "Badminton", StartTime: start, EndTime: start.Add(time.Hour)},
	}
}

func TestCreateBookAppointmentDecrementsStock(t *testing.T) {
	appts, books, db, rec := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	seedBook(t, books, staff, "978-1", 5)
	seedBook(t, books, staff, "978-2", 3)

	appt, err := appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID,
		request_models.BookLine{Isbn: "978-1", Quantity: 1},
		request_models.BookLine{Isbn: "978-2", Quantity: 2},
		request_models.BookLine{Isbn: " 978-1 ", Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, db_models.AppointmentScheduled, appt.Status)
	require.Len(t, appt.Books, 2)
	assert.Equal(t, 2, appt.Books[0].Quantity)
	assert.Equal(t, 3, shelf(t, db, "978-1"))
	assert.Equal(t, 1, shelf(t, db, "978-2"))
	assert.Equal(t, []string{events.AppointmentCreated}, rec.Types())

	// booking lazily made the caller a student
	var students int64
	require.NoError(t, db.Model(&db_models.Student{}).Where("user_id = ?", student.UserID).Count(&students).Error)
	assert.EqualValues(t, 1, students)
}

func TestCreateBookAppointmentIsAllOrNothing(t *testing.T) {
	appts, books, db, rec := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	seedBook(t, books, staff, "978-1", 5)
	seedBook(t, books, staff, "978-2", 1)
	seedBook(t, books, staff, "978-3", 5)

	_, err := appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID,
		request_models.BookLine{Isbn: "978-1", Quantity: 2},
		request_models.BookLine{Isbn: "978-2", Quantity: 2},
		request_models.BookLine{Isbn: "978-3", Quantity: 2},
	))
	assert.ErrorIs(t, err, utils.ErrInsufficientStock)
	assert.Equal(t, utils.KindBusinessRule, utils.KindOf(err))

	assert.Equal(t, 5, shelf(t, db, "978-1"))
	assert.Equal(t, 1, shelf(t, db, "978-2"))
	assert.Equal(t, 5, shelf(t, db, "978-3"))

	var n int64
	require.NoError(t, db.Model(&db_models.Appointment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&db_models.BookBorrowRecord{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, rec.Types())

	_, err = appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "missing", Quantity: 1}))
	assert.ErrorIs(t, err, utils.ErrBookNotFound)
}

func TestCreateAppointmentValidatesPayload(t *testing.T) {
	appts, _, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})

	noBooks := bookAppointment(staff.UserID)
	_, err := appts.CreateAppointment(ctx, student, noBooks)
	assert.ErrorIs(t, err, utils.ErrAppointmentTypeFields)

	mixed := sportAppointment(staff.UserID)
	mixed.Books = []request_models.BookLine{{Isbn: "978-1", Quantity: 1}}
	_, err = appts.CreateAppointment(ctx, student, mixed)
	assert.ErrorIs(t, err, utils.ErrAppointmentTypeFields)

	backwards := sportAppointment(staff.UserID)
	backwards.Sport.EndTime = backwards.Sport.StartTime.Add(-time.Minute)
	_, err = appts.CreateAppointment(ctx, student, backwards)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	blankSport := sportAppointment(staff.UserID)
	blankSport.Sport.SportType = "   "
	_, err = appts.CreateAppointment(ctx, student, blankSport)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	start := fixedNow.Add(72 * time.Hour)
	blankHealth := request_models.CreateAppointmentRequest{
		Type:    db_models.AppointmentTypeHealth,
		Date:    start,
		StaffID: staff.UserID,
		Health:  &request_models.HealthPayload{HealthType: "\t", StartTime: start, EndTime: start.Add(time.Hour)},
	}
	_, err = appts.CreateAppointment(ctx, student, blankHealth)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = appts.CreateAppointment(ctx, student, sportAppointment(uuid.New()))
	assert.ErrorIs(t, err, utils.ErrStaffNotFound)
}

func TestCancelRestoresStock(t *testing.T) {
	appts, books, db, rec := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	seedBook(t, books, staff, "978-1", 5)
	seedBook(t, books, staff, "978-2", 3)

	appt, err := appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID,
		request_models.BookLine{Isbn: "978-1", Quantity: 2},
		request_models.BookLine{Isbn: "978-2", Quantity: 3},
	))
	require.NoError(t, err)

	cancelled, err := appts.CancelAppointment(ctx, student, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.AppointmentCancelled, cancelled.Status)
	assert.Equal(t, 5, shelf(t, db, "978-1"))
	assert.Equal(t, 3, shelf(t, db, "978-2"))
	for _, b := range cancelled.Books {
		assert.NotNil(t, b.ReturnDate, b.Isbn)
	}

	evs := rec.Events()
	require.Len(t, evs, 2)
	payload, ok := evs[1].Payload.(events.AppointmentStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, 5, payload.BooksReturned)
	assert.Equal(t, "Cancelled", payload.To)

	// terminal: no further change, stock untouched
	_, err = appts.CancelAppointment(ctx, student, appt.ID)
	assert.ErrorIs(t, err, utils.ErrAppointmentFinalized)
	completed := db_models.AppointmentCompleted
	_, err = appts.UpdateAppointment(ctx, staff, appt.ID, request_models.UpdateAppointmentRequest{Status: &completed})
	assert.ErrorIs(t, err, utils.ErrAppointmentFinalized)
	assert.Equal(t, 5, shelf(t, db, "978-1"))
}

func TestNoShowRestoresStockButCompletedKeepsBorrow(t *testing.T) {
	appts, books, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	seedBook(t, books, staff, "978-1", 4)

	noShow, err := appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 1}))
	require.NoError(t, err)
	kept, err := appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, 1, shelf(t, db, "978-1"))

	status := db_models.AppointmentNoShow
	_, err = appts.UpdateAppointment(ctx, staff, noShow.ID, request_models.UpdateAppointmentRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, shelf(t, db, "978-1"))

	status = db_models.AppointmentCompleted
	done, err := appts.UpdateAppointment(ctx, staff, kept.ID, request_models.UpdateAppointmentRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, shelf(t, db, "978-1"))
	assert.Nil(t, done.Books[0].ReturnDate)

	// desk check-in closes the borrow later
	returned, err := appts.ReturnBooks(ctx, staff, kept.ID)
	require.NoError(t, err)
	assert.NotNil(t, returned.Books[0].ReturnDate)
	assert.Equal(t, 4, shelf(t, db, "978-1"))

	_, err = appts.ReturnBooks(ctx, student, kept.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestOwnerMayOnlyCancel(t *testing.T) {
	appts, _, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	stranger := seedUser(t, db, "x@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})

	appt, err := appts.CreateAppointment(ctx, student, sportAppointment(staff.UserID))
	require.NoError(t, err)

	completed := db_models.AppointmentCompleted
	_, err = appts.UpdateAppointment(ctx, student, appt.ID, request_models.UpdateAppointmentRequest{Status: &completed})
	assert.ErrorIs(t, err, utils.ErrOwnerMayOnlyCancel)

	later := appt.Date.Add(time.Hour)
	cancelled := db_models.AppointmentCancelled
	_, err = appts.UpdateAppointment(ctx, student, appt.ID, request_models.UpdateAppointmentRequest{Status: &cancelled, Date: &later})
	assert.ErrorIs(t, err, utils.ErrOwnerMayOnlyCancel)

	_, err = appts.CancelAppointment(ctx, stranger, appt.ID)
	assert.ErrorIs(t, err, utils.ErrNotAppointmentOwner)

	_, err = appts.GetAppointment(ctx, stranger, appt.ID)
	assert.ErrorIs(t, err, utils.ErrNotAppointmentOwner)

	got, err := appts.GetAppointment(ctx, student, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.AppointmentScheduled, got.Status)
}

func TestStaffReschedulesSlot(t *testing.T) {
	appts, _, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	other := seedUser(t, db, "other@example.com", roles{staff: true})

	appt, err := appts.CreateAppointment(ctx, student, sportAppointment(staff.UserID))
	require.NoError(t, err)

	newStart := appt.Sport.StartTime.Add(2 * time.Hour)
	newEnd := newStart.Add(90 * time.Minute)
	updated, err := appts.UpdateAppointment(ctx, staff, appt.ID, request_models.UpdateAppointmentRequest{
		StaffID:   &other.UserID,
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, other.UserID, updated.StaffID)
	require.NotNil(t, updated.Sport)
	assert.True(t, updated.Sport.StartTime.Equal(newStart))
	assert.True(t, updated.Sport.EndTime.Equal(newEnd))

	bad := newStart.Add(-time.Hour)
	_, err = appts.UpdateAppointment(ctx, other, appt.ID, request_models.UpdateAppointmentRequest{EndTime: &bad})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	missing := uuid.New()
	_, err = appts.UpdateAppointment(ctx, other, appt.ID, request_models.UpdateAppointmentRequest{StaffID: &missing})
	assert.ErrorIs(t, err, utils.ErrStaffNotFound)

	_, err = appts.UpdateAppointment(ctx, other, appt.ID, request_models.UpdateAppointmentRequest{})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestStaffEditsFinishedAppointmentButNotItsStatus(t *testing.T) {
	appts, _, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})

	appt, err := appts.CreateAppointment(ctx, student, sportAppointment(staff.UserID))
	require.NoError(t, err)
	completed := db_models.AppointmentCompleted
	_, err = appts.UpdateAppointment(ctx, staff, appt.ID, request_models.UpdateAppointmentRequest{Status: &completed})
	require.NoError(t, err)

	corrected := appt.Date.Add(-24 * time.Hour)
	updated, err := appts.UpdateAppointment(ctx, staff, appt.ID, request_models.UpdateAppointmentRequest{Date: &corrected})
	require.NoError(t, err)
	assert.WithinDuration(t, corrected, updated.Date, time.Second)
	assert.Equal(t, db_models.AppointmentCompleted, updated.Status)

	cancelled := db_models.AppointmentCancelled
	_, err = appts.UpdateAppointment(ctx, staff, appt.ID, request_models.UpdateAppointmentRequest{Status: &cancelled, Date: &corrected})
	assert.ErrorIs(t, err, utils.ErrAppointmentFinalized)

	// the owner still may only cancel, which a finished appointment refuses
	_, err = appts.UpdateAppointment(ctx, student, appt.ID, request_models.UpdateAppointmentRequest{Date: &corrected})
	assert.ErrorIs(t, err, utils.ErrOwnerMayOnlyCancel)
}

func TestListAppointments(t *testing.T) {
	appts, books, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	seedBook(t, books, staff, "978-1", 5)

	_, err := appts.CreateAppointment(ctx, student, sportAppointment(staff.UserID))
	require.NoError(t, err)
	_, err = appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 1}))
	require.NoError(t, err)

	mine, err := appts.ListMyAppointments(ctx, student, request_models.ListAppointmentsQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.TotalCount)

	asStaff, err := appts.ListMyAppointments(ctx, staff, request_models.ListAppointmentsQuery{Type: "Book"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, asStaff.TotalCount)
	assert.Equal(t, db_models.AppointmentTypeBook, asStaff.Items[0].Type)

	paged, err := appts.ListMyAppointments(ctx, student, request_models.ListAppointmentsQuery{PageQuery: request_models.PageQuery{Page: 2, PageSize: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, paged.TotalCount)
	assert.Len(t, paged.Items, 1)

	_, err = appts.AdminListAllAppointments(ctx, staff, request_models.AdminListAppointmentsQuery{})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	day := fixedNow.Add(24 * time.Hour).Format(utils.DateLayout)
	var all *response_models.PagedResponse[response_models.AppointmentResponse]
	all, err = appts.AdminListAllAppointments(ctx, admin, request_models.AdminListAppointmentsQuery{
		StudentID: student.UserID.String(),
		From:      day,
		To:        day,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, all.TotalCount)
	assert.Equal(t, db_models.AppointmentTypeBook, all.Items[0].Type)

	_, err = appts.AdminListAllAppointments(ctx, admin, request_models.AdminListAppointmentsQuery{StaffID: "nope"})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}
