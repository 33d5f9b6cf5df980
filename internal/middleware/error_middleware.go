package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/rs/zerolog/log"
)

// internalErrorMessage is the only text a client sees for unexpected errors
const internalErrorMessage = "Something went wrong"

// errorStatus groups sentinel errors by the HTTP status they map to
var errorStatus = []struct {
	status int
	errs   []error
}{
	{http.StatusNotFound, []error{
		apperrors.ErrResourceNotFound,
		apperrors.ErrUserNotFound,
		apperrors.ErrTaskNotFound,
		apperrors.ErrWalletNotFound,
		apperrors.ErrCircleNotFound,
		apperrors.ErrMeetingNotFound,
		apperrors.ErrVoucherNotFound,
		apperrors.ErrIntegrationNotLinked,
	}},
	{http.StatusConflict, []error{
		apperrors.ErrConflict,
		apperrors.ErrEmailAlreadyExists,
		apperrors.ErrAlreadyCircleMember,
		apperrors.ErrKarmaAlreadyAppraised,
		apperrors.ErrVoucherClaimed,
		apperrors.ErrIntegrationValueTaken,
		apperrors.ErrReportAlreadySubmited,
	}},
	{http.StatusForbidden, []error{
		apperrors.ErrPermissionDenied,
		apperrors.ErrNotCircleLead,
		apperrors.ErrAccountDisabled,
	}},
	{http.StatusUnauthorized, []error{
		apperrors.ErrInvalidCredentials,
		apperrors.ErrTokenInvalid,
		apperrors.ErrTokenExpired,
		apperrors.ErrTokenRevoked,
	}},
	{http.StatusBadRequest, []error{
		apperrors.ErrBadRequest,
		apperrors.ErrValidationFailed,
		apperrors.ErrTaskInactive,
		apperrors.ErrCircleFull,
		apperrors.ErrNotCircleMember,
		apperrors.ErrMeetingInPast,
		apperrors.ErrMeetingSlotTaken,
		apperrors.ErrWeeklyMeetingLimit,
		apperrors.ErrMeetingNotToday,
		apperrors.ErrMeetingNotStarted,
		apperrors.ErrKKEMPayloadInvalid,
	}},
}

// StatusFor returns the HTTP status for err, 500 when it is not an
// application error
func StatusFor(err error) int {
	for _, group := range errorStatus {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}

// HandleAPIError writes the error envelope for err. Application errors keep
// their message; anything else is logged and hidden behind a generic one.
func HandleAPIError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		c.JSON(status, dto.NewErrorResponse(status, internalErrorMessage))
		return
	}

	var custom *apperrors.CustomError
	if errors.As(err, &custom) && len(custom.Details) > 0 {
		resp := dto.NewErrorResponse(status, custom.Error())
		resp.Response = custom.Details
		c.JSON(status, resp)
		return
	}
	c.JSON(status, dto.NewErrorResponse(status, err.Error()))
}
