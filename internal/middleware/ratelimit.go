package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/vr-campus-tours/internal/config"
)

// Route classes with independent fixed-window budgets.
const (
	ClassAuth    = "auth"
	ClassPayment = "payment"
	ClassAPI     = "api"
)

// fixedWindowScript counts a request in the caller's current window and
// opens the window on the first hit. PTTL tells the caller how long until
// the window resets.
var fixedWindowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { current, ttl }
`)

// NewFixedWindow returns an Echo middleware enforcing max requests per
// window for one route class. Counters are shared through Redis so every
// instance draws from the same budget. When Redis is unavailable the
// middleware fails open and lets requests through; the health endpoint
// reports the limiter as degraded in that case. Rejected requests get a
// 429 with retryAfter (seconds), limit and windowMs so clients can back
// off precisely.
func NewFixedWindow(cfg config.RateLimitConfig, rdb *redis.Client, class string, max int) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	windowMs := cfg.Window.Milliseconds()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Prefix + ":" + class + ":" + clientKey(c)

			ctx := c.Request().Context()
			vals, err := fixedWindowScript.Run(ctx, rdb, []string{key}, windowMs).Result()
			if err != nil {
				// Redis down: fail open rather than reject traffic.
				return next(c)
			}

			current := int64(0)
			ttlMs := windowMs
			if arr, ok := vals.([]interface{}); ok && len(arr) == 2 {
				current = asInt64(arr[0])
				if t := asInt64(arr[1]); t > 0 {
					ttlMs = t
				}
			}

			remaining := int64(max) - current
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(max))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if current > int64(max) {
				retryAfter := (ttlMs + 999) / 1000 // round up to whole seconds
				h.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":      "rate limit exceeded",
					"retryAfter": retryAfter,
					"limit":      max,
					"windowMs":   windowMs,
				})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// LimiterStatus is reported by the health endpoint: "enabled" when the
// limiter is active, "disabled" when turned off by config, "degraded" when
// Redis was unreachable at startup and the limiter fails open.
func LimiterStatus(cfg config.RateLimitConfig, rdb *redis.Client) string {
	switch {
	case !cfg.Enabled:
		return "disabled"
	case rdb == nil:
		return "degraded"
	default:
		return "enabled"
	}
}
