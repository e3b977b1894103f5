package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-marketplace/internal/config"
	"github.com/ignatzorin/freelance-marketplace/internal/http/middleware"
)

func TestWebhookRateLimit_IndependentFromLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := middleware.NewLimiterStore(nil)
	require.NoError(t, err)

	cfg := &config.Config{
		RateLimitLimit:  2,
		RateLimitPeriod: time.Minute,
		Payment:         config.PaymentConfig{WebhookRateLimit: 50},
	}

	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/login", middleware.RateLimitMiddleware(store, "login", cfg.RateLimitLimit, cfg.RateLimitPeriod), ok)
	r.POST("/payments/webhook", webhookRateLimit(cfg, store), ok)

	call := func(path string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "203.0.113.7:4000"
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		call("/login")
	}
	assert.Equal(t, http.StatusTooManyRequests, call("/login"))

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, call("/payments/webhook"), "webhook request %d", i)
	}
}
