package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig defines the fixed-window limiter. One shared window size
// applies to three route classes, each with its own request budget: auth
// (signup/login/logout), payment (charge capture) and api (everything
// else). Counters live in Redis so several instances share one budget.
type RateLimitConfig struct {
	Enabled    bool
	Window     time.Duration
	AuthMax    int
	PaymentMax int
	APIMax     int
	Prefix     string
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig. Defaults match the documented limits: 50 auth, 20
// payment and 300 general requests per 15 minutes.
func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:    envBool("RATE_LIMIT_ENABLED", true),
		Window:     envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
		AuthMax:    envInt("RATE_LIMIT_AUTH_MAX", 50),
		PaymentMax: envInt("RATE_LIMIT_PAYMENT_MAX", 20),
		APIMax:     envInt("RATE_LIMIT_API_MAX", 300),
		Prefix:     envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if def.Window <= 0 {
		def.Window = 15 * time.Minute
	}
	if def.AuthMax < 1 {
		def.AuthMax = 1
	}
	if def.PaymentMax < 1 {
		def.PaymentMax = 1
	}
	if def.APIMax < 1 {
		def.APIMax = 1
	}
	return def
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
