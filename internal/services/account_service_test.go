package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"allinbee/internal/auth"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/internal/repositories"
	"allinbee/internal/testutil"
	"allinbee/pkg/utils"
)

func newAccountFixture(t *testing.T) (*AccountService, *gorm.DB, *utils.JWTManager) {
	t.Helper()
	db := testutil.OpenTestDatabase(t)
	tokens := utils.NewJWTManager("test-secret", time.Hour)
	return NewAccountService(repositories.NewAccountRepository(db), tokens, bcrypt.MinCost, zap.NewNop()), db, tokens
}

func registerRequest(email string) request_models.RegisterRequest {
	return request_models.RegisterRequest{
		Email:     email,
		Password:  "correct-horse",
		FirstName: "Linh",
		LastName:  "Tran",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, tokens := newAccountFixture(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerRequest("  Linh@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "linh@example.com", reg.Email)
	assert.Equal(t, "Linh Tran", reg.Name)

	login, err := svc.Login(ctx, request_models.LoginRequest{Email: "linh@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(login.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, reg.ID, id)
}

func TestEmailsAreNormalisedBeforeValidation(t *testing.T) {
	svc, db, _ := newAccountFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})

	_, err := svc.Register(ctx, registerRequest(" x@example.com"))
	require.NoError(t, err)
	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "  X@Example.COM ", Password: "correct-horse"})
	require.NoError(t, err)

	created, err := svc.CreateUser(ctx, admin, request_models.CreateUserRequest{
		RegisterRequest: registerRequest("\tNew@Example.com "),
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", created.Email)

	email := " Renamed@Example.com"
	updated, err := svc.UpdateUser(ctx, admin, created.ID, request_models.UpdateUserRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", updated.Email)

	blank := "   "
	_, err = svc.UpdateUser(ctx, admin, created.ID, request_models.UpdateUserRequest{Email: &blank})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAccountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerRequest("DUP@example.com"))
	assert.ErrorIs(t, err, utils.ErrEmailAlreadyExists)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAccountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("a@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	req := registerRequest("not-an-email")
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestResolveIdentityReadsRoleFlags(t *testing.T) {
	svc, db, _ := newAccountFixture(t)
	staff := seedUser(t, db, "staff@example.com", roles{staff: true, admin: true})

	id, err := svc.ResolveIdentity(context.Background(), staff.UserID)
	require.NoError(t, err)
	assert.True(t, id.IsStaff)
	assert.True(t, id.IsAdmin)
	assert.False(t, id.IsStudent)

	_, err = svc.ResolveIdentity(context.Background(), uuid.New())
	assert.ErrorIs(t, err, utils.ErrAccountNotFound)
}

func TestAdminCreateAndUpdateRoles(t *testing.T) {
	svc, db, _ := newAccountFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})

	created, err := svc.CreateUser(ctx, admin, request_models.CreateUserRequest{
		RegisterRequest: registerRequest("new@example.com"),
		IsStudent:       true,
		ManagedByID:     &admin.UserID,
	})
	require.NoError(t, err)
	assert.True(t, created.IsStudent)
	assert.False(t, created.IsStaff)

	grant, revoke := true, false
	updated, err := svc.UpdateUser(ctx, admin, created.ID, request_models.UpdateUserRequest{
		IsStaff:   &grant,
		IsStudent: &revoke,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsStaff)
	assert.False(t, updated.IsStudent)

	var students int64
	require.NoError(t, db.Model(&db_models.Student{}).Where("user_id = ?", created.ID).Count(&students).Error)
	assert.Zero(t, students)
}

func TestAdminCannotDemoteOrDeleteSelf(t *testing.T) {
	svc, db, _ := newAccountFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})

	revoke := false
	_, err := svc.UpdateUser(ctx, admin, admin.UserID, request_models.UpdateUserRequest{IsAdmin: &revoke})
	assert.Equal(t, utils.KindBusinessRule, utils.KindOf(err))

	err = svc.DeleteUser(ctx, admin, admin.UserID)
	assert.Equal(t, utils.KindBusinessRule, utils.KindOf(err))
}

func TestDeleteUserCascades(t *testing.T) {
	svc, db, _ := newAccountFixture(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	student := seedUser(t, db, "student@example.com", roles{student: true})

	require.NoError(t, svc.DeleteUser(ctx, admin, student.UserID))

	var n int64
	require.NoError(t, db.Model(&db_models.Student{}).Where("user_id = ?", student.UserID).Count(&n).Error)
	assert.Zero(t, n)

	err := svc.DeleteUser(ctx, admin, student.UserID)
	assert.ErrorIs(t, err, utils.ErrAccountNotFound)
}

func TestRemovingUsersReturnsBorrowedCopies(t *testing.T) {
	appts, books, db, _ := newAppointmentFixture(t)
	svc := NewAccountService(repositories.NewAccountRepository(db), utils.NewJWTManager("test-secret", time.Hour), bcrypt.MinCost, zap.NewNop())
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	leaving := seedUser(t, db, "leaving@example.com", roles{student: true})
	demoted := seedUser(t, db, "demoted@example.com", roles{student: true})
	seedBook(t, books, staff, "978-1", 5)

	_, err := appts.CreateAppointment(ctx, leaving, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 2}))
	require.NoError(t, err)
	_, err = appts.CreateAppointment(ctx, demoted, bookAppointment(staff.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 1}))
	require.NoError(t, err)
	require.Equal(t, 2, shelf(t, db, "978-1"))

	require.NoError(t, svc.DeleteUser(ctx, admin, leaving.UserID))
	assert.Equal(t, 4, shelf(t, db, "978-1"))

	revoke := false
	_, err = svc.UpdateUser(ctx, admin, demoted.UserID, request_models.UpdateUserRequest{IsStudent: &revoke})
	require.NoError(t, err)
	assert.Equal(t, 5, shelf(t, db, "978-1"))

	var borrows int64
	require.NoError(t, db.Model(&db_models.BookBorrowRecord{}).Count(&borrows).Error)
	assert.Zero(t, borrows)
}

func TestDeletingStaffReturnsBorrowedCopies(t *testing.T) {
	appts, books, db, _ := newAppointmentFixture(t)
	svc := NewAccountService(repositories.NewAccountRepository(db), utils.NewJWTManager("test-secret", time.Hour), bcrypt.MinCost, zap.NewNop())
	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	librarian := seedUser(t, db, "librarian@example.com", roles{staff: true})
	student := seedUser(t, db, "s@example.com", roles{student: true})
	seedBook(t, books, admin, "978-1", 3)

	_, err := appts.CreateAppointment(ctx, student, bookAppointment(librarian.UserID, request_models.BookLine{Isbn: "978-1", Quantity: 3}))
	require.NoError(t, err)
	require.Zero(t, shelf(t, db, "978-1"))

	require.NoError(t, svc.DeleteUser(ctx, admin, librarian.UserID))
	assert.Equal(t, 3, shelf(t, db, "978-1"))
}

func TestListUsersRequiresAdmin(t *testing.T) {
	svc, db, _ := newAccountFixture(t)
	ctx := context.Background()
	staff := seedUser(t, db, "staff@example.com", roles{staff: true})
	admin := seedUser(t, db, "admin@example.com", roles{admin: true})
	seedUser(t, db, "student@example.com", roles{student: true})

	_, err := svc.ListUsers(ctx, staff, request_models.ListUsersQuery{})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = svc.ListUsers(ctx, auth.Identity{}, request_models.ListUsersQuery{})
	assert.ErrorIs(t, err, utils.ErrUnauthenticated)

	page, err := svc.ListUsers(ctx, admin, request_models.ListUsersQuery{Search: "student"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, request_models.DefaultPageSize, page.PageSize)
}

func TestListStaffDirectory(t *testing.T) {
	svc, db, _ := newAccountFixture(t)
	student := seedUser(t, db, "student@example.com", roles{student: true})
	seedUser(t, db, "staff@example.com", roles{staff: true})

	staff, err := svc.ListStaff(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "staff@example.com", staff[0].Email)
}
