package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/pkg/utils"
)

func intPtr(n int) *int { return &n }

func TestUpdateBookShiftsShelfByStockDelta(t *testing.T) {
	appts, books, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	seedBook(t, books, staff, "978-1", 5)

	_, err := appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 3}))
	require.NoError(t, err)

	grown, err := books.UpdateBook(ctx, staff, "978-1", request_models.UpdateBookRequest{QuantityInStock: intPtr(8)})
	require.NoError(t, err)
	assert.Equal(t, 8, grown.QuantityInStock)
	assert.Equal(t, 5, grown.CurrentQuantity)

	// 3 copies are out, so the stock cannot drop below 3
	_, err = books.UpdateBook(ctx, staff, "978-1", request_models.UpdateBookRequest{QuantityInStock: intPtr(2)})
	assert.ErrorIs(t, err, utils.ErrStockBelowBorrowed)

	shrunk, err := books.UpdateBook(ctx, staff, "978-1", request_models.UpdateBookRequest{QuantityInStock: intPtr(3), Title: strPtr("  Renamed ")})
	require.NoError(t, err)
	assert.Equal(t, 0, shrunk.CurrentQuantity)
	assert.Equal(t, "Renamed", shrunk.Title)

	_, err = books.UpdateBook(ctx, staff, "missing", request_models.UpdateBookRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, utils.ErrBookNotFound)
}

func TestDeleteBookWithOpenBorrows(t *testing.T) {
	appts, books, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	student := seedUser(t, db, "s@example.com", roles{student: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	seedBook(t, books, staff, "978-1", 2)

	appt, err := appts.CreateAppointment(ctx, student, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 1}))
	require.NoError(t, err)

	err = books.DeleteBook(ctx, staff, "978-1")
	assert.ErrorIs(t, err, utils.ErrBookHasOpenBorrows)

	_, err = appts.CancelAppointment(ctx, student, appt.ID)
	require.NoError(t, err)
	require.NoError(t, books.DeleteBook(ctx, staff, "978-1"))

	var n int64
	require.NoError(t, db.Model(&db_models.Book{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBookCatalog(t *testing.T) {
	_, books, db, _ := newAppointmentFixture(t)
	ctx := context.Background()
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	student := seedUser(t, db, "s@example.com", roles{student: true})

	_, err := books.CreateBook(ctx, student, request_models.CreateBookRequest{Isbn: "1", Title: "x"})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	seedBook(t, books, staff, "978-1", 1)
	_, err = books.CreateBook(ctx, staff, request_models.CreateBookRequest{Isbn: "978-1", Title: "again"})
	assert.ErrorIs(t, err, utils.ErrBookAlreadyExists)

	created, err := books.CreateBook(ctx, staff, request_models.CreateBookRequest{Isbn: "978-2", Title: "Go in Practice", Author: "Butcher", QuantityInStock: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, created.CurrentQuantity)

	page, err := books.ListBooks(ctx, request_models.ListBooksQuery{Search: "practice"})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalCount)
	assert.Equal(t, "978-2", page.Items[0].Isbn)

	got, err := books.GetBook(ctx, "978-2")
	require.NoError(t, err)
	assert.Equal(t, "Butcher", got.Author)

	_, err = books.ListBooks(ctx, request_models.ListBooksQuery{PageQuery: request_models.PageQuery{PageSize: 500}})
	assert.ErrorIs(t, err, utils.ErrInvalidPageSize)
}
