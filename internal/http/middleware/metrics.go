package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "antiscam"
	metricsSubsystem = "http"

	// unmatchedRoute labels requests that hit no registered route so raw
	// URLs never become label values.
	unmatchedRoute = "unmatched"

	blockedKey = "screen.blocked"
)

var (
	httpReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	// Screening routes wait on the LLM, so the buckets reach 30s.
	httpLat = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
	}, []string{"method", "path"})

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "requests_inflight",
		Help:      "HTTP requests currently being served.",
	})

	httpRespSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "response_size_bytes",
		Help:      "HTTP response body size by method and route.",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"method", "path"})

	httpBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "blocked_replies_total",
		Help:      "Replies refused by the screening pipeline, by route and reason.",
	}, []string{"path", "reason"})
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, httpBlocked)
}

// MarkBlocked records that the reply to this request was a refusal
// (markup, abuse or usage limit). Empty reasons are ignored.
func MarkBlocked(c *gin.Context, reason string) {
	if reason != "" {
		c.Set(blockedKey, reason)
	}
}

// Metrics records count, latency, in-flight and response size per route,
// plus blocked replies flagged with MarkBlocked.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m := c.Request.Method
		httpReqs.WithLabelValues(m, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(m, route).Observe(time.Since(start).Seconds())
		if n := c.Writer.Size(); n >= 0 {
			httpRespSize.WithLabelValues(m, route).Observe(float64(n))
		}
		if reason := c.GetString(blockedKey); reason != "" {
			httpBlocked.WithLabelValues(route, reason).Inc()
		}
	}
}
