package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabels(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/conversations/:id/turns", func(c *gin.Context) { c.String(http.StatusOK, "[]") })

	route := httpReqs.WithLabelValues(http.MethodGet, "/conversations/:id/turns", "200")
	missing := httpReqs.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	baseRoute, baseMissing := testutil.ToFloat64(route), testutil.ToFloat64(missing)

	for _, p := range []string{"/conversations/a/turns", "/conversations/b/turns", "/elsewhere"} {
		do(r, http.MethodGet, p, nil)
	}

	if got := testutil.ToFloat64(route) - baseRoute; got != 2 {
		t.Fatalf("route delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(missing) - baseMissing; got != 1 {
		t.Fatalf("unmatched delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight = %v after requests finished", got)
	}
}

func TestMetrics_BlockedReplies(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.POST("/chat", func(c *gin.Context) {
		MarkBlocked(c, c.Query("reason"))
		c.Status(http.StatusOK)
	})

	abusive := httpBlocked.WithLabelValues("/chat", "abusive_content")
	base := testutil.ToFloat64(abusive)

	do(r, http.MethodPost, "/chat?reason=abusive_content", nil)
	do(r, http.MethodPost, "/chat", nil)

	if got := testutil.ToFloat64(abusive) - base; got != 1 {
		t.Fatalf("blocked delta = %v, want 1", got)
	}
}
