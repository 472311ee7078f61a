package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRateLimitRouter(window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", RateLimit(window), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimitBlocksBurst(t *testing.T) {
	router := newRateLimitRouter(time.Minute)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitRecoversAfterWindow(t *testing.T) {
	router := newRateLimitRouter(50 * time.Millisecond)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, first.Code)

	time.Sleep(80 * time.Millisecond)
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, second.Code)
}

func TestRateLimitDisabledWithZeroWindow(t *testing.T) {
	router := newRateLimitRouter(0)
	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, resp.Code)
	}
}
