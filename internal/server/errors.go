package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apptdomain "github.com/carebook/carebook/internal/appointment/domain"
	attachmentdomain "github.com/carebook/carebook/internal/attachment/domain"
	authdomain "github.com/carebook/carebook/internal/auth/domain"
	categorydomain "github.com/carebook/carebook/internal/category/domain"
	patientdomain "github.com/carebook/carebook/internal/patient/domain"
	sharingdomain "github.com/carebook/carebook/internal/sharing/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
	ErrNotFound       = errors.New("not_found")
)

// ErrorHandlingMiddleware turns the last gin error into a JSON response
// after the handler chain ran. Handlers report errors via AbortWithError
// and never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, authdomain.ErrEmailNotVerified):
		return http.StatusForbidden, errorPayload{
			Type:    "email_not_verified",
			Message: "email address has not been verified",
		}
	case errors.Is(err, sharingdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, authdomain.ErrUserExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, apptdomain.ErrInvalidTimeRange),
		errors.Is(err, apptdomain.ErrInvalidStatus),
		errors.Is(err, apptdomain.ErrInvalidTitle),
		errors.Is(err, patientdomain.ErrInvalidName),
		errors.Is(err, categorydomain.ErrInvalidName),
		errors.Is(err, sharingdomain.ErrInvalidPermission),
		errors.Is(err, sharingdomain.ErrInvalidInvitee),
		errors.Is(err, sharingdomain.ErrSelfInvite),
		errors.Is(err, attachmentdomain.ErrInvalidFileName),
		errors.Is(err, attachmentdomain.ErrEmptyFile):
		return true
	default:
		return strings.HasPrefix(err.Error(), "invalid_")
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, sharingdomain.ErrGrantNotFound),
		errors.Is(err, apptdomain.ErrAppointmentNotFound),
		errors.Is(err, patientdomain.ErrPatientNotFound),
		errors.Is(err, categorydomain.ErrCategoryNotFound),
		errors.Is(err, attachmentdomain.ErrAttachmentNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, authdomain.ErrTokenNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
