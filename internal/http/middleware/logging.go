// Package middleware holds the Gin middleware shared by every route.
//
// Recommended order: RequestID, UserIdentity, AccessLog, Recovery. That way
// panics and access lines carry both the correlation id and the caller.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// UserIDKey is the gin context key holding the caller's user id.
	UserIDKey = "userID"
	// UserIDHeader carries the caller's user id. There is no authentication;
	// the id only scopes conversations and usage accounting.
	UserIDHeader = "X-User-ID"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@\-]{1,64}$`)

// RequestID reuses the inbound X-Request-ID or mints a UUID, echoing it on
// the response and storing it in the gin context.
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

// UserIdentity copies a well-formed X-User-ID header into the gin context.
// Malformed ids are ignored and the request continues anonymously.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetHeader(UserIDHeader); userIDPattern.MatchString(uid) {
			c.Set(UserIDKey, uid)
		}
		c.Next()
	}
}

// UserID returns the caller id set by UserIdentity, or "".
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// RequestIDFrom returns the correlation id for c.
func RequestIDFrom(c *gin.Context) string {
	if rid := c.GetString(requestIDKey); rid != "" {
		return rid
	}
	return c.Writer.Header().Get(requestIDHeader)
}

// Recovery turns a panic into a logged stack trace and a JSON 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by AccessLog, or the
// global logger when none is attached.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}
