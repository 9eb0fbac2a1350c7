package utils

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindBusinessRule
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// ServiceError is the error type every service returns. Sentinels below are
// *ServiceError values; wrap them with fmt.Errorf("%w: ...") to add detail.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, msg string) *ServiceError {
	return &ServiceError{Kind: kind, Message: msg}
}

func ValidationError(msg string) error { return newErr(KindValidation, msg) }
func ConflictError(msg string) error { return newErr(KindConflict, msg) }
func BusinessRuleError(msg string) error { return newErr(KindBusinessRule, msg) }

// KindOf returns the kind of the first ServiceError in err's chain.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

var (
	ErrInvalidPage     = newErr(KindValidation, "invalid page parameter")
	ErrInvalidPageSize = newErr(KindValidation, "invalid page size parameter")
	ErrInvalidInput    = newErr(KindValidation, "invalid input")
	ErrDatabaseError   = newErr(KindInternal, "database error")

	ErrUnauthenticated    = newErr(KindUnauthorized, "authentication required")
	ErrInvalidCredentials = newErr(KindUnauthorized, "invalid email or password")
	ErrForbidden          = newErr(KindForbidden, "forbidden: insufficient permissions")

	ErrAccountNotFound    = newErr(KindNotFound, "account not found")
	ErrEmailAlreadyExists = newErr(KindConflict, "email already registered")
	ErrStaffNotFound      = newErr(KindNotFound, "staff member not found")
	ErrAdminNotFound      = newErr(KindNotFound, "managing admin not found")

	ErrCardNotFound        = newErr(KindNotFound, "digital card not found")
	ErrInsufficientBalance = newErr(KindBusinessRule, "insufficient balance")
	ErrCardLimitExceeded   = newErr(KindBusinessRule, "deposit would exceed the card limit")
	ErrQRCodeNotFound      = newErr(KindNotFound, "QR code not found")
	ErrQRCodeExpired       = newErr(KindBusinessRule, "QR code has expired")
	ErrQRCodeAlreadyUsed   = newErr(KindBusinessRule, "QR code has already been used")
	ErrQRCodeMenuMismatch  = newErr(KindBusinessRule, "QR code is bound to a different menu")
	ErrMenuNotFound        = newErr(KindNotFound, "menu not found")
	ErrMenuHasSales        = newErr(KindConflict, "menu has recorded sales and cannot be deleted")
	ErrDishNotFound        = newErr(KindNotFound, "dish not found")

	ErrRouteNotFound     = newErr(KindNotFound, "route not found")
	ErrRouteNameTaken    = newErr(KindConflict, "route name already exists")
	ErrStationNotFound   = newErr(KindNotFound, "station not found")
	ErrStationInUse      = newErr(KindConflict, "station is assigned to one or more routes")
	ErrStationNameTaken  = newErr(KindConflict, "station name already exists")
	ErrBusNotFound       = newErr(KindNotFound, "bus not found")
	ErrBusPlateTaken     = newErr(KindConflict, "bus plate number already exists")
	ErrDuplicateStopSlot = newErr(KindConflict, "stop order already used on this route")

	ErrAppointmentNotFound   = newErr(KindNotFound, "appointment not found")
	ErrAppointmentFinalized  = newErr(KindBusinessRule, "appointment status can no longer change")
	ErrNotAppointmentOwner   = newErr(KindForbidden, "only the owning student or staff may change this appointment")
	ErrOwnerMayOnlyCancel    = newErr(KindForbidden, "students may only cancel their appointments")
	ErrBookNotFound          = newErr(KindNotFound, "book not found")
	ErrBookAlreadyExists     = newErr(KindConflict, "book with this ISBN already exists")
	ErrInsufficientStock     = newErr(KindBusinessRule, "insufficient stock")
	ErrBookHasOpenBorrows    = newErr(KindConflict, "book has open borrow records")
	ErrStockBelowBorrowed    = newErr(KindBusinessRule, "quantity in stock cannot drop below borrowed copies")
	ErrNotABookAppointment   = newErr(KindBusinessRule, "appointment has no book borrows")
	ErrAppointmentTypeFields = newErr(KindValidation, "fields do not match the appointment type")
)
