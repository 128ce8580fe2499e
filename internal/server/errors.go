package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/frontdesk/internal/analytics/domain"
	authdomain "github.com/smallbiznis/frontdesk/internal/auth/domain"
	contactdomain "github.com/smallbiznis/frontdesk/internal/contact/domain"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

const defaultRetryAfterSeconds = "60"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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
		if status == http.StatusTooManyRequests && c.Writer.Header().Get("Retry-After") == "" {
			c.Header("Retry-After", defaultRetryAfterSeconds)
		}
		c.Header("Content-Type", "application/json")
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrMissingToken),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, authdomain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type and code the
// client receives.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, eventdomain.ErrInvalidEventType),
		errors.Is(err, analyticsdomain.ErrInvalidWindow),
		errors.Is(err, authdomain.ErrCredentialsRequired):
		return true
	case isContactValidationError(err):
		return true
	default:
		return false
	}
}

func isContactValidationError(err error) bool {
	switch {
	case errors.Is(err, contactdomain.ErrFirstNameRequired),
		errors.Is(err, contactdomain.ErrLastNameRequired),
		errors.Is(err, contactdomain.ErrEmailRequired),
		errors.Is(err, contactdomain.ErrSubjectRequired),
		errors.Is(err, contactdomain.ErrMessageRequired),
		errors.Is(err, contactdomain.ErrStatusRequired),
		errors.Is(err, contactdomain.ErrInvalidEmail),
		errors.Is(err, contactdomain.ErrInvalidFirstName),
		errors.Is(err, contactdomain.ErrInvalidLastName),
		errors.Is(err, contactdomain.ErrInvalidPhone),
		errors.Is(err, contactdomain.ErrInvalidSubject),
		errors.Is(err, contactdomain.ErrInvalidCompany),
		errors.Is(err, contactdomain.ErrInvalidMessage),
		errors.Is(err, contactdomain.ErrInvalidAssignedTo),
		errors.Is(err, contactdomain.ErrInvalidAbandonmentPoint),
		errors.Is(err, contactdomain.ErrFieldTooLong),
		errors.Is(err, contactdomain.ErrInvalidStatus),
		errors.Is(err, contactdomain.ErrInvalidPriority),
		errors.Is(err, contactdomain.ErrInvalidWindow),
		errors.Is(err, contactdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, contactdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, authdomain.ErrCredentialsRequired):
		return "credentials_required"
	case errors.Is(err, contactdomain.ErrInvalidWindow),
		errors.Is(err, analyticsdomain.ErrInvalidWindow):
		return "invalid_window"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch {
	case code == "invalid_request":
		return "request"
	case code == "invalid_window":
		return "start_date"
	case code == "credentials_required":
		return "credentials"
	case code == "field_too_long":
		return "request"
	case strings.HasSuffix(code, "_required"):
		return strings.TrimSuffix(code, "_required")
	case strings.HasPrefix(code, "invalid_"):
		return strings.TrimPrefix(code, "invalid_")
	default:
		return ""
	}
}

func validationErrorMessage(code string) string {
	switch {
	case code == "invalid_request":
		return "invalid request"
	case code == "invalid_window":
		return "start_date must not be after end_date"
	case code == "credentials_required":
		return "username and password are required"
	case code == "field_too_long":
		return "a field exceeds its maximum length"
	case strings.HasSuffix(code, "_required"):
		return strings.TrimSuffix(code, "_required") + " is required"
	case strings.HasPrefix(code, "invalid_"):
		return "invalid " + strings.TrimPrefix(code, "invalid_")
	default:
		return "invalid value"
	}
}
