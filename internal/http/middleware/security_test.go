package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(SecurityOptions{EnableHSTS: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodGet, "/", nil)
	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers = %v", h)
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS on plain http")
	}
	if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" {
		t.Fatalf("optional headers set: %v", h)
	}
	if h.Get("Access-Control-Expose-Headers") != requestIDHeader {
		t.Fatalf("expose = %q", h.Get("Access-Control-Expose-Headers"))
	}
}

func TestSecurityHeaders_OptionalAndHTTPS(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour, NoStore: true, EnablePolicy: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	h := w.Header()
	if h.Get("Strict-Transport-Security") != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("hsts = %q", h.Get("Strict-Transport-Security"))
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Permissions-Policy") == "" {
		t.Fatalf("headers = %v", h)
	}

	w = do(r, http.MethodGet, "/", map[string]string{"X-Forwarded-Proto": "HTTPS"})
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("forwarded https should get HSTS")
	}
}

func TestExposeHeader_Appends(t *testing.T) {
	h := http.Header{}
	h.Set("Access-Control-Expose-Headers", "ETag")
	exposeHeader(h, requestIDHeader)
	exposeHeader(h, requestIDHeader)
	if got := h.Get("Access-Control-Expose-Headers"); got != "ETag, X-Request-ID" {
		t.Fatalf("expose = %q", got)
	}
}

func TestRequireAdminToken(t *testing.T) {
	open := gin.New()
	open.Use(RequireAdminToken(""))
	open.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := do(open, http.MethodGet, "/admin", nil); w.Code != http.StatusOK {
		t.Fatalf("open admin = %d", w.Code)
	}

	locked := gin.New()
	locked.Use(RequireAdminToken("s3cret"))
	locked.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
	for hdr, want := range map[string]int{"": http.StatusUnauthorized, "nope": http.StatusUnauthorized, "s3cret": http.StatusOK} {
		w := do(locked, http.MethodGet, "/admin", map[string]string{AdminTokenHeader: hdr})
		if w.Code != want {
			t.Fatalf("token %q -> %d, want %d", hdr, w.Code, want)
		}
	}
}
