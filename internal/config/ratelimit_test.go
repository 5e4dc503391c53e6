package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Window)
	assert.Equal(t, 50, cfg.AuthMax)
	assert.Equal(t, 20, cfg.PaymentMax)
	assert.Equal(t, 300, cfg.APIMax)
	assert.Equal(t, "rl", cfg.Prefix)
}

func TestLoadRateLimitConfigOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("RATE_LIMIT_AUTH_MAX", "5")
	t.Setenv("RATE_LIMIT_PAYMENT_MAX", "2")
	t.Setenv("RATE_LIMIT_API_MAX", "30")

	cfg := LoadRateLimitConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, 5, cfg.AuthMax)
	assert.Equal(t, 2, cfg.PaymentMax)
	assert.Equal(t, 30, cfg.APIMax)
}

func TestLoadRateLimitConfigClampsBadValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "-5m")
	t.Setenv("RATE_LIMIT_AUTH_MAX", "0")
	t.Setenv("RATE_LIMIT_API_MAX", "not-a-number")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, 15*time.Minute, cfg.Window)
	assert.Equal(t, 1, cfg.AuthMax)
	assert.Equal(t, 300, cfg.APIMax)
}
