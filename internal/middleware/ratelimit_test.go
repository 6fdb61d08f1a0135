package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ramtsps/Art-Academy-Website/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(rpm int) *gin.Engine {
	r := gin.New()
	r.Use(middleware.NewRateLimiter(rpm).Handler())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestRateLimiterThrottlesBursts(t *testing.T) {
	router := newLimitedRouter(60)

	var ok, throttled int
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		switch rec.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			throttled++
		default:
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}

	// 60 rpm allows a burst of 6, so a 20-request blast must see both
	// outcomes.
	require.Greater(t, ok, 0)
	require.Greater(t, throttled, 0)
	require.LessOrEqual(t, ok, 7)
}

func TestRateLimiterDisabledWhenBudgetZero(t *testing.T) {
	require.Nil(t, middleware.NewRateLimiter(0))

	// A nil limiter still hands out a pass-through middleware.
	router := gin.New()
	router.Use(middleware.NewRateLimiter(0).Handler())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
