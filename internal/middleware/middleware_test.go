package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(APIKeyHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInternalAuthMiddleware(t *testing.T) {
	r := newRouter(InternalAuthMiddleware("s3cret"))

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"valid key", "s3cret", http.StatusOK},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
		{"prefix of key", "s3c", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, get(r, tt.key).Code)
		})
	}
}

func TestInternalAuthMiddlewareMisconfigured(t *testing.T) {
	w := get(newRouter(InternalAuthMiddleware("")), "anything")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "misconfigured")
}

func TestServiceRateLimitMiddleware(t *testing.T) {
	r := newRouter(ServiceRateLimitMiddleware(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2}))

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)

	w := get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestServiceRateLimitMiddlewareDisabled(t *testing.T) {
	r := newRouter(ServiceRateLimitMiddleware(RateLimiterConfig{}))
	for n := 0; n < 50; n++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(RequestLogger(zerolog.New(&buf)))

	get(r, "")

	assert.Contains(t, buf.String(), `"path":"/ping"`)
	assert.Contains(t, buf.String(), `"status":200`)
}
