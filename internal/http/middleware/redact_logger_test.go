package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"call 0912-345-678 now":                       "call [REDACTED:phone] now",
		"mail a@b.co":                                 "mail [REDACTED:email]",
		"acct=12345678901234":                         "acct=[REDACTED:account]",
		"id=123e4567-e89b-12d3-a456-426614174000":     "id=[REDACTED:id]",
		"q=hello":                                     "q=hello",
	}
	for in, want := range cases {
		if got := redact(in); got != want {
			t.Fatalf("redact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAccessLog_RedactsAndScopesLogger(t *testing.T) {
	buf := captureLogger(t)
	r := gin.New()
	r.Use(RequestID(), UserIdentity(), AccessLog(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/conversations/:id", func(c *gin.Context) {
		log.Ctx(c.Request.Context()).Info().Msg("inside")
		c.Status(http.StatusNotFound)
	})

	do(r, http.MethodGet, "/conversations/42?phone=0912345678", map[string]string{
		requestIDHeader:  "rid-9",
		UserIDHeader:     "u1",
		"X-Api-Key":      "secret",
		AdminTokenHeader: "admin-secret",
		"Authorization":  "Bearer x",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 log lines, got %d: %s", len(lines), buf.String())
	}
	var inner, access map[string]any
	_ = json.Unmarshal([]byte(lines[0]), &inner)
	_ = json.Unmarshal([]byte(lines[1]), &access)

	if inner["request_id"] != "rid-9" || inner["user_id"] != "u1" {
		t.Fatalf("ctx logger not scoped: %v", inner)
	}
	if access["level"] != "warn" || access["path"] != "/conversations/:id" {
		t.Fatalf("access = %v", access)
	}
	if q, _ := access["query"].(string); strings.Contains(q, "0912345678") {
		t.Fatalf("query not redacted: %q", q)
	}
	if strings.Contains(lines[1], "secret") || strings.Contains(lines[1], "Bearer") {
		t.Fatalf("headers leaked: %s", lines[1])
	}
}

func TestAccessLog_ErrorLevelOn5xx(t *testing.T) {
	buf := captureLogger(t)
	r := gin.New()
	r.Use(AccessLog(RedactOptions{}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	do(r, http.MethodGet, "/x", nil)
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("log = %s", buf.String())
	}
}
