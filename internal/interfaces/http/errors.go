package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the caller-safe part of an application error
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var statusByKind = map[apperror.Kind]int{
	apperror.KindInvalidAmount:      http.StatusUnprocessableEntity,
	apperror.KindValidationFailed:   http.StatusBadRequest,
	apperror.KindNotFound:           http.StatusNotFound,
	apperror.KindRenderFailed:       http.StatusInternalServerError,
	apperror.KindStorageUnavailable: http.StatusServiceUnavailable,
	apperror.KindConfigMissing:      http.StatusInternalServerError,
	apperror.KindUnauthenticated:    http.StatusUnauthorized,
}

var genericMessages = map[apperror.Kind]string{
	apperror.KindRenderFailed:       apperror.ErrRenderFailed.Message,
	apperror.KindStorageUnavailable: apperror.ErrStorageUnavailable.Message,
	apperror.KindConfigMissing:      apperror.ErrConfigMissing.Message,
}

// statusFor maps an error to its HTTP status and response body.
// Errors without a kind are reported as internal without their message.
func statusFor(err error) (int, ErrorBody) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorBody{Kind: apperror.KindInternal.String(), Message: apperror.MessageOf(err)}
	}

	status, ok := statusByKind[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := ErrorBody{Kind: appErr.Kind.String(), Message: apperror.MessageOf(err)}
	if status >= http.StatusInternalServerError {
		body.Message = genericMessages[appErr.Kind]
		if body.Message == "" {
			body.Message = "internal error"
		}
	}
	return status, body
}

func abortWithError(c *gin.Context, err error) {
	status, body := statusFor(err)
	c.AbortWithStatusJSON(status, Response{Success: false, Error: &body})
}

func bindError(err error) error {
	return apperror.Wrap(apperror.KindValidationFailed, err, "invalid request: %s", err.Error())
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}
