// Package handlers provides the HTTP handler implementations for the public
// API.
//
// This file defines the standard response utilities used across all
// endpoints: a structured error envelope, consistent JSON serialization, and
// the mapping from application error codes to HTTP statuses. All error
// responses return an ErrorResponse with a stable `code`; fail() centralizes
// error logging so 5xx responses carry request context.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "conflict",
//	  "message": "letter not yet delivered"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
	"github.com/Bashy-Codes/wf-server/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
	// Offending input field for validation failures
	Field string `json:"field,omitempty" example:"title"`
}

// fail aborts the request with a structured error. Server errors (>= 500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failField(c, status, code, msg, "")
}

func failField(c *gin.Context, status int, code, msg, field string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
		Field:     field,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates an application error into the HTTP envelope. Unknown
// errors surface as 500 with a generic message so internals never leak.
func failErr(c *gin.Context, err error) {
	var field, msg string
	if e, ok := err.(*apperr.Error); ok {
		field, msg = e.Field, e.Message
	} else {
		msg = "internal server error"
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeUnauthenticated:
		failField(c, http.StatusUnauthorized, ErrCodeUnauthorized, msg, field)
	case apperr.CodeValidation:
		failField(c, http.StatusBadRequest, ErrCodeBadRequest, msg, field)
	case apperr.CodeNotAuthorized:
		failField(c, http.StatusForbidden, ErrCodeForbidden, msg, field)
	case apperr.CodeNotFound:
		failField(c, http.StatusNotFound, ErrCodeNotFound, msg, field)
	case apperr.CodeInvalidState:
		failField(c, http.StatusConflict, ErrCodeConflict, msg, field)
	default:
		failField(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error", "")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
