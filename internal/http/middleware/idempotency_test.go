package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	user, conv, key string
}

func idemEngine(lookup IdempotencyLookup) *gin.Engine {
	r := gin.New()
	r.Use(UserIdentity(), IdempotencyValidator(IdempotencyOptions{MaxLen: 16}, lookup))
	r.POST("/conversations/:id/turns", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.Header("X-Key", key)
		if IsReplay(c) {
			c.Header("X-Replay", "1")
		}
		if IsRateBypass(c) {
			c.Header("X-Bypass", "1")
		}
		c.Status(http.StatusCreated)
	})
	return r
}

func TestIdempotencyValidator_NoHeaderSkipsLookup(t *testing.T) {
	called := false
	r := idemEngine(func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	})
	w := do(r, http.MethodPost, "/conversations/c1/turns", nil)
	if w.Code != http.StatusCreated || called || w.Header().Get("X-Replay") != "" {
		t.Fatalf("code=%d called=%v", w.Code, called)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	r := idemEngine(nil)
	for _, key := range []string{strings.Repeat("a", 17), "has space", "emoji😊"} {
		w := do(r, http.MethodPost, "/conversations/c1/turns", map[string]string{HeaderIdempotencyKey: key})
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q -> %d %s", key, w.Code, w.Body.String())
		}
	}
}

func TestIdempotencyValidator_LookupScopesByUserAndConversation(t *testing.T) {
	var calls []lookupCall
	hit := false
	r := idemEngine(func(_ context.Context, user, conv, key string, _ time.Time) (bool, error) {
		calls = append(calls, lookupCall{user, conv, key})
		return hit, nil
	})

	w := do(r, http.MethodPost, "/conversations/c1/turns", map[string]string{HeaderIdempotencyKey: "k-1"})
	if w.Header().Get("X-Key") != "k-1" || w.Header().Get("X-Replay") != "" {
		t.Fatalf("miss headers = %v", w.Header())
	}

	hit = true
	w = do(r, http.MethodPost, "/conversations/c2/turns", map[string]string{HeaderIdempotencyKey: "k-1", UserIDHeader: "u9"})
	if w.Header().Get("X-Replay") != "1" || w.Header().Get("X-Bypass") != "1" {
		t.Fatalf("hit headers = %v", w.Header())
	}

	want := []lookupCall{{DemoUserID, "c1", "k-1"}, {"u9", "c2", "k-1"}}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestIdempotencyValidator_LookupErrorIsMiss(t *testing.T) {
	r := idemEngine(func(context.Context, string, string, string, time.Time) (bool, error) {
		return false, errors.New("db down")
	})
	w := do(r, http.MethodPost, "/conversations/c1/turns", map[string]string{HeaderIdempotencyKey: "k"})
	if w.Code != http.StatusCreated || w.Header().Get("X-Replay") != "" {
		t.Fatalf("code=%d headers=%v", w.Code, w.Header())
	}
}
