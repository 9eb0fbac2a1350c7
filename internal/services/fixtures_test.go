package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"allinbee/internal/auth"
	"allinbee/internal/events"
	"allinbee/internal/models/db_models"
	"allinbee/internal/repositories"
	"allinbee/internal/testutil"
	mem "allinbee/pkg/memcache"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type roles struct {
	student, staff, admin bool
}

// seedUser inserts a user with the given role records and returns the
// identity the JWT middleware would resolve for it.
func seedUser(t *testing.T, db *gorm.DB, email string, r roles) auth.Identity {
	t.Helper()

	u := db_models.User{Email: email, PasswordHash: "unused", FirstName: "Test", LastName: email}
	require.NoError(t, db.Create(&u).Error)
	if r.student {
		require.NoError(t, db.Create(&db_models.Student{UserID: u.ID}).Error)
	}
	if r.staff {
		require.NoError(t, db.Create(&db_models.Staff{UserID: u.ID}).Error)
	}
	if r.admin {
		require.NoError(t, db.Create(&db_models.Admin{UserID: u.ID}).Error)
	}
	return auth.Identity{UserID: u.ID, Email: email, IsStudent: r.student, IsStaff: r.staff, IsAdmin: r.admin}
}

func newCafeteriaFixture(t *testing.T) (*CafeteriaService, *gorm.DB, *events.Recorder) {
	t.Helper()
	db := testutil.OpenTestDatabase(t)
	rec := &events.Recorder{}
	svc := NewCafeteriaService(repositories.NewCardRepository(db), repositories.NewMenuRepository(db), rec, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, db, rec
}

func newRingFixture(t *testing.T) (*RingTrackingService, *gorm.DB, *mem.MemoryStore) {
	t.Helper()
	db := testutil.OpenTestDatabase(t)
	store := mem.NewMemoryStore()
	return NewRingTrackingService(repositories.NewRingTrackingRepository(db), store, time.Minute, zap.NewNop()), db, store
}

func newAppointmentFixture(t *testing.T) (*AppointmentService, *BookService, *gorm.DB, *events.Recorder) {
	t.Helper()
	db := testutil.OpenTestDatabase(t)
	rec := &events.Recorder{}
	appts := NewAppointmentService(repositories.NewAppointmentRepository(db), rec, zap.NewNop())
	appts.now = func() time.Time { return fixedNow }
	books := NewBookService(repositories.NewBookRepository(db), zap.NewNop())
	return appts, books, db, rec
}

func strPtr(s string) *string { return &s }
