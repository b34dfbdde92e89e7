package api

import (
	"errors"
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Error codes carried next to the human readable message.
const (
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeTooManyRequests    = "ERR_TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	ErrCodeSessionExpired = "ERR_SESSION_EXPIRED"
	ErrCodeUserBanned     = "ERR_USER_BANNED"
	ErrCodeInvalidState   = "ERR_INVALID_STATE"
	ErrCodeMissingField   = "ERR_MISSING_FIELD"
	ErrCodeFileTooLarge   = "ERR_FILE_TOO_LARGE"
	ErrCodeUnsupportedExt = "ERR_UNSUPPORTED_FILE_TYPE"
)

const internalErrorMessage = "internal server error"

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse aborts the request with an APIError body.
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails is ErrorResponse with a details payload.
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError never exposes the cause to the caller.
func InternalError(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, internalErrorMessage)
}

func ServiceUnavailable(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// MissingField reports a required field that was left empty.
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload reports a body that could not be decoded.
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// statusForKind maps a service error kind to its HTTP status and code.
func statusForKind(kind service.Kind) (int, string) {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest, ErrCodeInvalidRequest
	case service.KindAuth:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case service.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case service.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	case service.KindRateLimited:
		return http.StatusTooManyRequests, ErrCodeTooManyRequests
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// respondError turns a service error into a response. Internal errors are
// logged with their cause and answered with a generic message.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status, code := statusForKind(kind)
	if kind == service.KindInternal {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		ErrorResponse(c, status, code, internalErrorMessage)
		return
	}
	message := err.Error()
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	ErrorResponse(c, status, code, message)
}
