package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/interfaces/http/response"
)

// respondError maps domain sentinels onto HTTP statuses before handing the
// error to the response envelope
func respondError(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		response.Error(c, appErr)
		return
	}

	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		response.Error(c, domainerrors.NotFound(err.Error()))
	case errors.Is(err, domainerrors.ErrNoClearingSystemFound),
		errors.Is(err, domainerrors.ErrAccountNotFound):
		response.Error(c, domainerrors.NotFound(err.Error()))
	case errors.Is(err, domainerrors.ErrTenantNotAuthorizedForClearingSystem):
		response.Error(c, domainerrors.Forbidden(err.Error()))
	case errors.Is(err, domainerrors.ErrClearingSystemInactive),
		errors.Is(err, domainerrors.ErrConflict),
		errors.Is(err, domainerrors.ErrConflictingRepair),
		errors.Is(err, domainerrors.ErrRepairTerminal):
		response.Error(c, domainerrors.Conflict(err.Error()))
	case errors.Is(err, domainerrors.ErrNotSupported):
		response.Error(c, domainerrors.BadRequest(err.Error()))
	case errors.Is(err, domainerrors.ErrCircuitOpen),
		errors.Is(err, domainerrors.ErrRateLimited),
		errors.Is(err, domainerrors.ErrBulkheadFull),
		errors.Is(err, domainerrors.ErrTimedOut),
		errors.Is(err, domainerrors.ErrDownstreamUnavailable):
		response.Error(c, domainerrors.ServiceUnavailable("downstream unavailable", err))
	case domainerrors.IsBusiness(err):
		response.Error(c, domainerrors.BadRequest(err.Error()))
	default:
		response.Error(c, err)
	}
}
