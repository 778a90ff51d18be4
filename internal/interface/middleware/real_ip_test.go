package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func resolveIP(headers map[string]string) string {
	r := gin.New()
	r.Use(RealIP())
	var got string
	r.GET("/", func(c *gin.Context) {
		got = RealIPFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return got
}

func TestRealIPResolution(t *testing.T) {
	t.Run("cloudflare header wins", func(t *testing.T) {
		got := resolveIP(map[string]string{
			"CF-Connecting-IP": "198.51.100.4",
			"X-Forwarded-For":  "203.0.113.9",
		})
		assert.Equal(t, "198.51.100.4", got)
	})

	t.Run("left-most forwarded address", func(t *testing.T) {
		got := resolveIP(map[string]string{
			"X-Forwarded-For": "203.0.113.9, 10.0.0.1",
		})
		assert.Equal(t, "203.0.113.9", got)
	})

	t.Run("garbage headers fall back to peer address", func(t *testing.T) {
		got := resolveIP(map[string]string{
			"CF-Connecting-IP": "not-an-ip",
			"X-Forwarded-For":  "also-not-an-ip",
		})
		assert.NotEmpty(t, got)
	})

	t.Run("without the middleware the getter still resolves", func(t *testing.T) {
		r := gin.New()
		var got string
		r.GET("/", func(c *gin.Context) {
			got = RealIPFromContext(c)
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NotEmpty(t, got)
	})
}
