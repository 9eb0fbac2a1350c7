package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"allinbee/internal/auth"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/internal/models/response_models"
	"allinbee/internal/repositories"
	"allinbee/pkg/utils"
)

type AccountServiceInterface interface {
	Register(ctx context.Context, request request_models.RegisterRequest) (*response_models.RegisterResponse, error)
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.LoginResponse, error)
	Me(ctx context.Context, caller auth.Identity) (*response_models.UserResponse, error)
	ListStaff(ctx context.Context, caller auth.Identity) ([]response_models.StaffResponse, error)

	ListUsers(ctx context.Context, caller auth.Identity, query request_models.ListUsersQuery) (*response_models.PagedResponse[response_models.UserResponse], error)
	GetUser(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.UserResponse, error)
	CreateUser(ctx context.Context, caller auth.Identity, request request_models.CreateUserRequest) (*response_models.UserResponse, error)
	UpdateUser(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateUserRequest) (*response_models.UserResponse, error)
	DeleteUser(ctx context.Context, caller auth.Identity, id uuid.UUID) error

	ResolveIdentity(ctx context.Context, userID uuid.UUID) (*auth.Identity, error)
}

// TokenIssuer creates session tokens for a user id.
type TokenIssuer interface {
	CreateToken(userID uuid.UUID) (string, time.Time, error)
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	tokens      TokenIssuer
	bcryptCost  int
	log         *zap.Logger
}

func NewAccountService(accountRepo repositories.AccountRepository, tokens TokenIssuer, bcryptCost int, log *zap.Logger) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		log:         log,
	}
}

func (a *AccountService) Register(ctx context.Context, request request_models.RegisterRequest) (*response_models.RegisterResponse, error) {
	request.Email = normalizeEmail(request.Email)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	user, err := a.newUser(request)
	if err != nil {
		return nil, err
	}

	if err := a.accountRepo.CreateWithRoles(ctx, user, repositories.RoleChanges{}); err != nil {
		return nil, mapRepoErr(a.log, "register", err)
	}

	a.log.Info("Account registered", zap.String("user_id", user.ID.String()))
	return &response_models.RegisterResponse{ID: user.ID, Email: user.Email, Name: user.FullName()}, nil
}

func (a *AccountService) newUser(request request_models.RegisterRequest) (*db_models.User, error) {
	hashedPassword, err := utils.HashPassword(request.Password, a.bcryptCost)
	if err != nil {
		a.log.Error("Password hashing failed", zap.Error(err))
		return nil, &utils.ServiceError{Kind: utils.KindInternal, Message: "could not hash password", Err: err}
	}

	user := &db_models.User{
		Email:        normalizeEmail(request.Email),
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(request.FirstName),
		LastName:     strings.TrimSpace(request.LastName),
		Phone:        request.Phone,
	}
	return user, nil
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.LoginResponse, error) {
	request.Email = normalizeEmail(request.Email)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	user, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, mapRepoErr(a.log, "login", err)
	}
	if user == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(user.PasswordHash, request.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, expiresAt, err := a.tokens.CreateToken(user.ID)
	if err != nil {
		a.log.Error("Token generation failed", zap.Error(err))
		return nil, &utils.ServiceError{Kind: utils.KindInternal, Message: "could not issue token", Err: err}
	}

	return &response_models.LoginResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

func (a *AccountService) Me(ctx context.Context, caller auth.Identity) (*response_models.UserResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}
	return a.getUser(ctx, caller.UserID)
}

func (a *AccountService) getUser(ctx context.Context, id uuid.UUID) (*response_models.UserResponse, error) {
	user, err := a.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(a.log, "find user", err)
	}
	if user == nil {
		return nil, utils.ErrAccountNotFound
	}
	resp := response_models.NewUserResponse(user)
	return &resp, nil
}

func (a *AccountService) ListStaff(ctx context.Context, caller auth.Identity) ([]response_models.StaffResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}

	users, err := a.accountRepo.ListStaff(ctx)
	if err != nil {
		return nil, mapRepoErr(a.log, "list staff", err)
	}

	out := make([]response_models.StaffResponse, 0, len(users))
	for i := range users {
		out = append(out, response_models.StaffResponse{
			ID:    users[i].ID,
			Name:  users[i].FullName(),
			Email: users[i].Email,
		})
	}
	return out, nil
}

func (a *AccountService) ListUsers(ctx context.Context, caller auth.Identity, query request_models.ListUsersQuery) (*response_models.PagedResponse[response_models.UserResponse], error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := normalizePage(&query.PageQuery); err != nil {
		return nil, err
	}

	users, total, err := a.accountRepo.List(ctx, query.Search, query.Offset(), query.PageSize)
	if err != nil {
		return nil, mapRepoErr(a.log, "list users", err)
	}

	items := make([]response_models.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, response_models.NewUserResponse(&users[i]))
	}
	return &response_models.PagedResponse[response_models.UserResponse]{
		Items:      items,
		TotalCount: total,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

func (a *AccountService) GetUser(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.UserResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return a.getUser(ctx, id)
}

func (a *AccountService) CreateUser(ctx context.Context, caller auth.Identity, request request_models.CreateUserRequest) (*response_models.UserResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	request.Email = normalizeEmail(request.Email)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	user, err := a.newUser(request.RegisterRequest)
	if err != nil {
		return nil, err
	}

	roles := repositories.RoleChanges{ManagedByID: request.ManagedByID}
	if request.IsStudent {
		roles.Student = boolPtr(true)
	}
	if request.IsStaff {
		roles.Staff = boolPtr(true)
	}
	if request.IsAdmin {
		roles.Admin = boolPtr(true)
	}
	if err := a.accountRepo.CreateWithRoles(ctx, user, roles); err != nil {
		return nil, mapRepoErr(a.log, "create user", err)
	}

	a.log.Info("User created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("admin_id", caller.UserID.String()))
	return a.getUser(ctx, user.ID)
}

func (a *AccountService) UpdateUser(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateUserRequest) (*response_models.UserResponse, error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if request.Email != nil {
		email := normalizeEmail(*request.Email)
		if email == "" {
			return nil, utils.ValidationError("email must not be blank")
		}
		request.Email = &email
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	if id == caller.UserID && request.IsAdmin != nil && !*request.IsAdmin {
		return nil, utils.BusinessRuleError("admins cannot revoke their own admin role")
	}

	updates := map[string]interface{}{}
	if request.Email != nil {
		updates["email"] = *request.Email
	}
	if request.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*request.FirstName)
	}
	if request.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*request.LastName)
	}
	if request.Phone != nil {
		updates["phone"] = *request.Phone
	}
	if request.Password != nil {
		hashed, err := utils.HashPassword(*request.Password, a.bcryptCost)
		if err != nil {
			return nil, &utils.ServiceError{Kind: utils.KindInternal, Message: "could not hash password", Err: err}
		}
		updates["password_hash"] = hashed
	}

	roles := repositories.RoleChanges{
		Student:     request.IsStudent,
		Staff:       request.IsStaff,
		Admin:       request.IsAdmin,
		ManagedByID: request.ManagedByID,
	}

	user, err := a.accountRepo.UpdateWithRoles(ctx, id, updates, roles)
	if err != nil {
		return nil, mapRepoErr(a.log, "update user", err)
	}
	resp := response_models.NewUserResponse(user)
	return &resp, nil
}

func (a *AccountService) DeleteUser(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return err
	}
	if id == caller.UserID {
		return utils.BusinessRuleError("admins cannot delete their own account")
	}

	deleted, err := a.accountRepo.Delete(ctx, id)
	if err != nil {
		return mapRepoErr(a.log, "delete user", err)
	}
	if !deleted {
		return utils.ErrAccountNotFound
	}
	a.log.Info("User deleted", zap.String("user_id", id.String()), zap.String("admin_id", caller.UserID.String()))
	return nil
}

// ResolveIdentity backs the JWT middleware: role flags are read fresh on
// every request so grants and revocations apply immediately.
func (a *AccountService) ResolveIdentity(ctx context.Context, userID uuid.UUID) (*auth.Identity, error) {
	user, err := a.accountRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(a.log, "resolve identity", err)
	}
	if user == nil {
		return nil, utils.ErrAccountNotFound
	}
	return &auth.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		IsStudent: user.Student != nil,
		IsStaff:   user.Staff != nil,
		IsAdmin:   user.Admin != nil,
	}, nil
}

func boolPtr(b bool) *bool { return &b }
