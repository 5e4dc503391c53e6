package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a clientKey function used to key rate-limit
// counters: authenticated requests are limited per user, anonymous ones
// per client IP.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// clientKey returns a stable identifier for the caller. Auth middleware
// stores user_id as uint64; routes in front of Auth (signup, login,
// availability) fall back to the remote IP.
func clientKey(c echo.Context) string {
	if v, ok := c.Get("user_id").(uint64); ok && v != 0 {
		return "u" + strconv.FormatUint(v, 10)
	}
	return "ip" + c.RealIP()
}
