package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("PAYMENT_AUTO_VALIDATE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction())
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.Payment.WebhookSecret)
	assert.True(t, cfg.Payment.AutoValidate)
	assert.Equal(t, 5*time.Minute, cfg.Payment.WebhookTolerance)
	assert.Equal(t, int64(300), cfg.Payment.WebhookRateLimit)
	assert.Equal(t, int64(10), cfg.RateLimitLimit)
	assert.NotEmpty(t, cfg.AllowedOrigins)
	assert.Equal(t, "@every 15s", cfg.Outbox.Schedule)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("REFRESH_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ProductionRejectsAutoValidate(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("REFRESH_SECRET", secret)
	t.Setenv("PAYMENT_WEBHOOK_SECRET", secret)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	t.Setenv("PAYMENT_AUTO_VALIDATE", "true")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PAYMENT_AUTO_VALIDATE", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Payment.AutoValidate)
}

func TestParseOrigins(t *testing.T) {
	origins, err := parseOrigins(" https://a.example.com , ,https://b.example.com", EnvProduction)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, origins)

	_, err = parseOrigins("", EnvProduction)
	assert.Error(t, err)
}
