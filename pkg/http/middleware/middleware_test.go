package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newEcho(m ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(m...)
	e.GET("/api/forecast", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func do(e *echo.Echo, method, path, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowList(t *testing.T) {
	e := newEcho(CORS(CORSConfig{
		AllowOrigins: []string{"https://dash.example.org/"},
		AllowMethods: []string{http.MethodGet},
		MaxAge:       600,
	}))

	rec := do(e, http.MethodGet, "/api/forecast", "https://dash.example.org")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://dash.example.org", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = do(e, http.MethodGet, "/api/forecast", "https://evil.example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = do(e, http.MethodOptions, "/api/forecast", "https://dash.example.org")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}

func TestCORSWildcardAndDisabled(t *testing.T) {
	rec := do(newEcho(CORS(CORSConfig{AllowOrigins: []string{"*"}})), http.MethodGet, "/api/forecast", "http://localhost:3000")
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = do(newEcho(CORS(CORSConfig{})), http.MethodGet, "/api/forecast", "http://localhost:3000")
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Empty(t, rec.Header().Get(echo.HeaderVary))
}

type budget struct{ left int }

func (b *budget) Allow(string) bool {
	if b.left == 0 {
		return false
	}
	b.left--
	return true
}

func TestRateLimitSkipsListedPaths(t *testing.T) {
	e := newEcho(RateLimit(&budget{left: 1}, "/health"))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/forecast", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/api/forecast", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "").Code)
}
