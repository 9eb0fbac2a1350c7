package services

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"allinbee/internal/auth"
	"allinbee/internal/models/request_models"
	"allinbee/pkg/utils"
)

// requireRole repeats the route gate so direct callers get the same answer.
func requireRole(caller auth.Identity, min auth.Role) error {
	if caller.Level() == auth.RoleAnonymous && min > auth.RoleAnonymous {
		return utils.ErrUnauthenticated
	}
	if !caller.Satisfies(min) {
		return utils.ErrForbidden
	}
	return nil
}

// mapRepoErr passes typed errors through and turns anything else into
// ErrDatabaseError after logging it.
func mapRepoErr(log *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *utils.ServiceError
	if errors.As(err, &se) {
		return err
	}
	log.Error("Database operation failed", zap.String("op", op), zap.Error(err))
	return utils.ErrDatabaseError
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePage(p *request_models.PageQuery) error {
	p.Normalize()
	if p.Page < 1 {
		return utils.ErrInvalidPage
	}
	if p.PageSize < 1 || p.PageSize > request_models.MaxPageSize {
		return utils.ErrInvalidPageSize
	}
	return nil
}
