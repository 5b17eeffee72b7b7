package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if got := KeyByUserOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("anonymous key = %q", got)
	}
	c.Set(UserIDKey, "u123")
	if got := KeyByUserOrIP()(c); got != "user:u123" {
		t.Fatalf("user key = %q", got)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(2, 0, nil)
	if rl.burst != 1 || rl.keyFn == nil {
		t.Fatalf("burst=%d keyFn nil=%v", rl.burst, rl.keyFn == nil)
	}
	if rl.getVisitor("k") != rl.getVisitor("k") {
		t.Fatalf("bucket not reused")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.ttl = time.Nanosecond
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.sweepN = 4999

	rl.getVisitor("new")
	if _, ok := rl.visitors["old"]; ok {
		t.Fatalf("idle bucket survived sweep")
	}
	if _, ok := rl.visitors["new"]; !ok {
		t.Fatalf("requested bucket missing")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(0.5, 1, nil)
	r := gin.New()
	r.Use(RequestID(), UserIdentity(), func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
	}, rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	u1 := map[string]string{UserIDHeader: "u1"}
	if w := do(r, http.MethodGet, "/", u1); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := do(r, http.MethodGet, "/", u1)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "2" {
		t.Fatalf("second = %d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if w := do(r, http.MethodGet, "/", map[string]string{UserIDHeader: "u2"}); w.Code != http.StatusOK {
		t.Fatalf("other user = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/", map[string]string{UserIDHeader: "u1", "X-Replay": "1"}); w.Code != http.StatusOK {
		t.Fatalf("replay = %d", w.Code)
	}
}
