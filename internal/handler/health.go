package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness plus the state of the dependencies the
// service can degrade without (the rate limiter) and the one it cannot
// (the database).
type HealthHandler struct {
	DB            *sql.DB
	LimiterStatus string
}

func NewHealthHandler(db *sql.DB, limiterStatus string) *HealthHandler {
	return &HealthHandler{DB: db, LimiterStatus: limiterStatus}
}

// Check handles GET /healthz. A failed database ping reports 503 so load
// balancers pull the instance; a degraded rate limiter does not, since
// the limiter fails open.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	status := http.StatusOK
	if err := h.DB.PingContext(ctx); err != nil {
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}

	body := echo.Map{
		"status":      "ok",
		"database":    dbStatus,
		"rateLimiter": h.LimiterStatus,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	return c.JSON(status, body)
}
