// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers every endpoint goes through, so both
// success and failure shapes stay uniform: errors always arrive as an
// ErrorResponse envelope with a stable code, successes as plain JSON bodies.
//
// Example error response:
//
//	HTTP/1.1 422 Unprocessable Entity
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_price",
//	  "message": "monthly cost must be between 0 and 1000"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint. RequestID
// echoes the X-Request-ID header so a client error can be matched to server
// logs; Code is one of the constants in errors.go; Message is safe to show
// to users.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"resource not found"`
}

// fail aborts the request with the standard error envelope. Server-side
// failures (>= 500) are additionally logged through the request-scoped
// logger; client errors are the caller's problem and stay out of the error
// log.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, for callers outside this package
// (router fallbacks).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// internalErrMsg is the only message a 500 body ever carries. Raw store and
// provider errors stay in the server log.
const internalErrMsg = "something went wrong, please try again later"

// failInternal logs the underlying error with the request-scoped logger and
// answers 500 with the generic message, keeping err.Error() out of the
// response body.
func failInternal(c *gin.Context, code string, err error) {
	middleware.LoggerFrom(c).Error().
		Err(err).
		Str("code", code).
		Msg("api error")

	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   internalErrMsg,
	})
}

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes HTTP 204.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
