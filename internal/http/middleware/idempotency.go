package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey lets clients retry POST /conversations/:id/turns
// without producing a second assistant reply.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether the lookup found a stored result for this key.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// IdempotencyOptions tunes key validation. TTL is the lookup's concern.
type IdempotencyOptions struct {
	MaxLen     int            // default 200
	Pattern    *regexp.Regexp // default ^[A-Za-z0-9._~\-:]+$
	ScopeParam string         // route param scoping the key; default "id"
}

// IdempotencyLookup reports whether an unexpired result exists for
// (userID, conversationID, key). Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error)

// IdempotencyValidator validates Idempotency-Key when present and stashes it
// for the handler. A hit marks the request as a replay, which also exempts
// it from the edge rate limiter. Serving the stored result is left to the
// handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	if opts.MaxLen <= 0 {
		opts.MaxLen = 200
	}
	if opts.Pattern == nil {
		opts.Pattern = defaultKeyPattern
	}
	if opts.ScopeParam == "" {
		opts.ScopeParam = "id"
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > opts.MaxLen || !opts.Pattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			hit, err := lookup(c.Request.Context(), userOrDemo(c), c.Param(opts.ScopeParam), key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if hit {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// DemoUserID owns conversations created without an X-User-ID header.
const DemoUserID = "demo-user"

func userOrDemo(c *gin.Context) string {
	if uid := UserID(c); uid != "" {
		return uid
	}
	return DemoUserID
}
