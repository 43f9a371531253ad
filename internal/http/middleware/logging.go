// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the request-correlation and logging core: RequestID assigns
// or propagates an X-Request-ID per request, Logger emits one structured
// access line and installs a request-scoped zerolog.Logger under the "logger"
// context key, and Recovery turns panics into JSON 500 responses. Handlers
// pick the scoped logger back up with LoggerFrom, e.g.
// lg.Info().Int("service_id", id).
//
// Chain order matters: RequestID first, then a logger, then Recovery, so a
// panic is logged with its correlation id.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"

	// Cap on logged query-string bytes.
	maxQueryLogLength = 2048
)

// RequestID reuses an incoming X-Request-ID or generates a UUIDv4, stores it
// in the Gin context and echoes it on the response so clients can quote it in
// bug reports.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger emits one structured access-log line per request and installs the
// request-scoped logger for downstream code. The line carries method, route
// path (raw path when no route matched), client metadata, sizes, status and
// latency. Level follows outcome: error for 5xx or when the Gin context
// collected errors, warn for 4xx, info otherwise.
//
// The public API chain uses RedactingLogger instead; Logger suits internal
// tooling where header scrubbing is not needed.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		scoped := scopedLogger(c)
		c.Set("logger", &scoped)

		c.Next()

		done := scoped.With().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch status := c.Writer.Status(); {
		case len(c.Errors) > 0:
			done.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			done.Error().Msg("request")
		case status >= 400:
			done.Warn().Msg("request")
		default:
			done.Info().Msg("request")
		}
	}
}

// scopedLogger builds the per-request logger carrying the correlation fields.
// Route pattern is preferred over the raw path so series line up across
// requests; the raw path is the fallback for unmatched routes.
func scopedLogger(c *gin.Context) zerolog.Logger {
	rid, _ := c.Get(requestIDKey)
	uid, _ := c.Get("userID")
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	return log.With().
		Str("request_id", asString(rid)).
		Str("user_id", asString(uid)).
		Str("method", c.Request.Method).
		Str("path", path).
		Str("remote_ip", c.ClientIP()).
		Str("user_agent", c.Request.UserAgent()).
		Str("referer", c.Request.Referer()).
		Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
		Int64("bytes_in", c.Request.ContentLength). // -1 when unknown
		Logger()
}

// Recovery logs the panic value with a stack trace and answers with the
// standard JSON error envelope, unless the handler already started writing,
// in which case only the status can be forced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger installed by Logger, or a
// field-less fallback so callers never need a nil check.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate caps s at max bytes, appending an ellipsis. max <= 0 disables the
// cap. Byte-level slicing can split a rune; acceptable for log output.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
