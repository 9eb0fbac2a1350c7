package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"allinbee/internal/auth"
	"allinbee/internal/events"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/internal/models/response_models"
	"allinbee/internal/repositories"
	"allinbee/pkg/utils"
)

type AppointmentServiceInterface interface {
	CreateAppointment(ctx context.Context, caller auth.Identity, request request_models.CreateAppointmentRequest) (*response_models.AppointmentResponse, error)
	UpdateAppointment(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateAppointmentRequest) (*response_models.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.AppointmentResponse, error)
	ReturnBooks(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.AppointmentResponse, error)
	GetAppointment(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.AppointmentResponse, error)
	ListMyAppointments(ctx context.Context, caller auth.Identity, query request_models.ListAppointmentsQuery) (*response_models.PagedResponse[response_models.AppointmentResponse], error)
	AdminListAllAppointments(ctx context.Context, caller auth.Identity, query request_models.AdminListAppointmentsQuery) (*response_models.PagedResponse[response_models.AppointmentResponse], error)
}

type AppointmentService struct {
	repo      repositories.AppointmentRepository
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewAppointmentService(repo repositories.AppointmentRepository, publisher events.Publisher, log *zap.Logger) *AppointmentService {
	return &AppointmentService{repo: repo, publisher: publisher, log: log, now: time.Now}
}

func checkSlot(start, end time.Time) error {
	if !end.After(start) {
		return utils.ValidationError("end time must be after start time")
	}
	return nil
}

// mergeBookLines trims isbns and folds repeated isbns into one loan.
func mergeBookLines(lines []request_models.BookLine) ([]repositories.BookLoan, error) {
	index := make(map[string]int, len(lines))
	loans := make([]repositories.BookLoan, 0, len(lines))
	for _, l := range lines {
		isbn := strings.TrimSpace(l.Isbn)
		if isbn == "" {
			return nil, utils.ValidationError("isbn must not be empty")
		}
		if l.Quantity < 1 {
			return nil, utils.ValidationError("quantity must be at least 1")
		}
		if i, ok := index[isbn]; ok {
			loans[i].Quantity += l.Quantity
			continue
		}
		index[isbn] = len(loans)
		loans = append(loans, repositories.BookLoan{Isbn: isbn, Quantity: l.Quantity})
	}
	return loans, nil
}

// buildNewAppointment checks that exactly the payload matching the type is
// present and converts it to the repository shape.
func buildNewAppointment(studentID uuid.UUID, request request_models.CreateAppointmentRequest) (repositories.NewAppointment, error) {
	in := repositories.NewAppointment{
		StudentID: studentID,
		StaffID:   request.StaffID,
		Type:      request.Type,
		Date:      request.Date.UTC(),
	}

	mismatch := func(msg string) error {
		return fmt.Errorf("%w: %s", utils.ErrAppointmentTypeFields, msg)
	}

	switch request.Type {
	case db_models.AppointmentTypeSport:
		if request.Sport == nil {
			return in, mismatch("sport appointments need a sport payload")
		}
		if request.Health != nil || len(request.Books) > 0 {
			return in, mismatch("sport appointments take only a sport payload")
		}
		sportType := strings.TrimSpace(request.Sport.SportType)
		if sportType == "" {
			return in, utils.ValidationError("sport_type must not be blank")
		}
		if err := checkSlot(request.Sport.StartTime, request.Sport.EndTime); err != nil {
			return in, err
		}
		in.Sport = &db_models.SportAppointment{
			SportType: sportType,
			StartTime: request.Sport.StartTime.UTC(),
			EndTime:   request.Sport.EndTime.UTC(),
		}
	case db_models.AppointmentTypeHealth:
		if request.Health == nil {
			return in, mismatch("health appointments need a health payload")
		}
		if request.Sport != nil || len(request.Books) > 0 {
			return in, mismatch("health appointments take only a health payload")
		}
		healthType := strings.TrimSpace(request.Health.HealthType)
		if healthType == "" {
			return in, utils.ValidationError("health_type must not be blank")
		}
		if err := checkSlot(request.Health.StartTime, request.Health.EndTime); err != nil {
			return in, err
		}
		in.Health = &db_models.HealthAppointment{
			HealthType: healthType,
			StartTime:  request.Health.StartTime.UTC(),
			EndTime:    request.Health.EndTime.UTC(),
		}
	case db_models.AppointmentTypeBook:
		if len(request.Books) == 0 {
			return in, mismatch("book appointments need at least one book")
		}
		if request.Sport != nil || request.Health != nil {
			return in, mismatch("book appointments take only books")
		}
		loans, err := mergeBookLines(request.Books)
		if err != nil {
			return in, err
		}
		in.Books = loans
	default:
		return in, utils.ValidationError("unknown appointment type")
	}
	return in, nil
}

func (s *AppointmentService) CreateAppointment(ctx context.Context, caller auth.Identity, request request_models.CreateAppointmentRequest) (*response_models.AppointmentResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	in, err := buildNewAppointment(caller.UserID, request)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.Create(ctx, in, s.now())
	if err != nil {
		return nil, mapRepoErr(s.log, "create appointment", err)
	}

	events.Emit(ctx, s.publisher, s.log, events.New(events.AppointmentCreated, events.AppointmentCreatedPayload{
		AppointmentID: appt.ID.String(),
		StudentID:     appt.StudentID.String(),
		StaffID:       appt.StaffID.String(),
		Type:          string(appt.Type),
		Date:          utils.FormatRFC3339(appt.Date),
	}))

	resp := response_models.NewAppointmentResponse(appt)
	return &resp, nil
}

// authorizeUpdate is evaluated against the locked row. Students may only
// cancel their own appointments; staff, admins and the staff of record may
// change anything. Status changes need a Scheduled appointment.
func authorizeUpdate(caller auth.Identity, request request_models.UpdateAppointmentRequest) func(*db_models.Appointment) error {
	return func(a *db_models.Appointment) error {
		privileged := caller.IsStaffOrAdmin() || a.StaffID == caller.UserID
		if !privileged {
			if a.StudentID != caller.UserID {
				return utils.ErrNotAppointmentOwner
			}
			if !request.TouchesOnlyStatus() || request.Status == nil || *request.Status != db_models.AppointmentCancelled {
				return utils.ErrOwnerMayOnlyCancel
			}
		}
		if request.Status != nil && a.Status.IsTerminal() {
			return fmt.Errorf("%w: appointment is %s", utils.ErrAppointmentFinalized, a.Status)
		}
		return nil
	}
}

func (s *AppointmentService) UpdateAppointment(ctx context.Context, caller auth.Identity, id uuid.UUID, request request_models.UpdateAppointmentRequest) (*response_models.AppointmentResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	if request.Status == nil && request.TouchesOnlyStatus() {
		return nil, utils.ValidationError("nothing to update")
	}
	if request.Status != nil && !request.Status.Valid() {
		return nil, utils.ValidationError("unknown appointment status")
	}

	changes := repositories.AppointmentChanges{
		Status:    request.Status,
		Date:      request.Date,
		StaffID:   request.StaffID,
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
	}
	appt, transition, err := s.repo.Update(ctx, id, changes, authorizeUpdate(caller, request), s.now())
	if err != nil {
		return nil, mapRepoErr(s.log, "update appointment", err)
	}

	if transition != nil {
		s.log.Info("Appointment status changed",
			zap.String("appointment_id", appt.ID.String()),
			zap.String("from", string(transition.From)),
			zap.String("to", string(transition.To)),
			zap.Int("books_returned", transition.BooksReturned))
		events.Emit(ctx, s.publisher, s.log, events.New(events.AppointmentStatusChanged, events.AppointmentStatusChangedPayload{
			AppointmentID: appt.ID.String(),
			From:          string(transition.From),
			To:            string(transition.To),
			BooksReturned: transition.BooksReturned,
		}))
	}

	resp := response_models.NewAppointmentResponse(appt)
	return &resp, nil
}

func (s *AppointmentService) CancelAppointment(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.AppointmentResponse, error) {
	status := db_models.AppointmentCancelled
	return s.UpdateAppointment(ctx, caller, id, request_models.UpdateAppointmentRequest{Status: &status})
}

func (s *AppointmentService) ReturnBooks(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.AppointmentResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return nil, err
	}

	appt, returned, err := s.repo.ReturnBooks(ctx, id, s.now())
	if err != nil {
		return nil, mapRepoErr(s.log, "return books", err)
	}
	s.log.Info("Books returned", zap.String("appointment_id", id.String()), zap.Int("copies", returned))

	resp := response_models.NewAppointmentResponse(appt)
	return &resp, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, caller auth.Identity, id uuid.UUID) (*response_models.AppointmentResponse, error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}

	appt, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, mapRepoErr(s.log, "find appointment", err)
	}
	if appt == nil {
		return nil, utils.ErrAppointmentNotFound
	}
	if !caller.IsStaffOrAdmin() && appt.StudentID != caller.UserID && appt.StaffID != caller.UserID {
		return nil, utils.ErrNotAppointmentOwner
	}

	resp := response_models.NewAppointmentResponse(appt)
	return &resp, nil
}

func (s *AppointmentService) list(ctx context.Context, filter repositories.AppointmentFilter, page request_models.PageQuery) (*response_models.PagedResponse[response_models.AppointmentResponse], error) {
	filter.Offset = page.Offset()
	filter.Limit = page.PageSize

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(s.log, "list appointments", err)
	}

	out := make([]response_models.AppointmentResponse, 0, len(items))
	for i := range items {
		out = append(out, response_models.NewAppointmentResponse(&items[i]))
	}
	return &response_models.PagedResponse[response_models.AppointmentResponse]{
		Items:      out,
		TotalCount: total,
		Page:       page.Page,
		PageSize:   page.PageSize,
	}, nil
}

// ListMyAppointments returns appointments where the caller is the student or
// the staff of record.
func (s *AppointmentService) ListMyAppointments(ctx context.Context, caller auth.Identity, query request_models.ListAppointmentsQuery) (*response_models.PagedResponse[response_models.AppointmentResponse], error) {
	if err := requireRole(caller, auth.RoleAuthenticated); err != nil {
		return nil, err
	}
	if err := normalizePage(&query.PageQuery); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(query); err != nil {
		return nil, err
	}

	return s.list(ctx, repositories.AppointmentFilter{
		ParticipantID: &caller.UserID,
		Status:        db_models.AppointmentStatus(query.Status),
		Type:          db_models.AppointmentType(query.Type),
	}, query.PageQuery)
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, utils.ValidationError(field + " must be a UUID")
	}
	return &id, nil
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return nil, utils.ValidationError(field + " must be a YYYY-MM-DD date")
	}
	return &d, nil
}

func (s *AppointmentService) AdminListAllAppointments(ctx context.Context, caller auth.Identity, query request_models.AdminListAppointmentsQuery) (*response_models.PagedResponse[response_models.AppointmentResponse], error) {
	if err := requireRole(caller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := normalizePage(&query.PageQuery); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(query); err != nil {
		return nil, err
	}

	filter := repositories.AppointmentFilter{
		Status: db_models.AppointmentStatus(query.Status),
		Type:   db_models.AppointmentType(query.Type),
	}
	var err error
	if filter.StudentID, err = parseOptionalUUID("studentId", query.StudentID); err != nil {
		return nil, err
	}
	if filter.StaffID, err = parseOptionalUUID("staffId", query.StaffID); err != nil {
		return nil, err
	}
	if filter.From, err = parseOptionalDate("from", query.From); err != nil {
		return nil, err
	}
	to, err := parseOptionalDate("to", query.To)
	if err != nil {
		return nil, err
	}
	if to != nil {
		// inclusive calendar day
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, utils.ValidationError("from must not be after to")
	}

	return s.list(ctx, filter, query.PageQuery)
}
