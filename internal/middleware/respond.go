package middleware

import (
	"log/slog"
	"net/http"

	"dashboard_api/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Error codes produced at the HTTP boundary only.
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUnauthorized    = "UNAUTHORIZED"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AbortJSON aborts with the standard error body.
func AbortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message, "code": code})
}

// AbortWithError writes err as the standard error body. Errors outside the
// apperr taxonomy are logged and answered with a generic 500.
func AbortWithError(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok || ae.Kind == apperr.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
		_ = c.Error(err)
		AbortJSON(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
		return
	}
	AbortJSON(c, StatusFor(ae.Kind), ae.Code, ae.Message)
}
