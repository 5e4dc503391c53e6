package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/vr-campus-tours/internal/config"
	"github.com/iliyamo/vr-campus-tours/internal/handler"
	"github.com/iliyamo/vr-campus-tours/internal/middleware"
	"github.com/iliyamo/vr-campus-tours/internal/model"
)

// Handlers bundles everything the route table needs. The router owns no
// business logic; it decides which middleware chain guards which handler.
type Handlers struct {
	Auth     *handler.AuthHandler
	Bookings *handler.BookingHandler
	Admin    *handler.AdminHandler
	Colleges *handler.CollegeHandler
	Health   *handler.HealthHandler
}

// Register wires the full route table onto e.
//
// Three rate-limit classes apply: auth (signup/login, strictest),
// payment (the charge endpoint), and api (everything else). All three
// fail open when Redis is unavailable. The response cache only fronts
// the two public read endpoints; authenticated responses are never
// cached.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rl config.RateLimitConfig, cache config.CacheConfig, rdb *redis.Client) {
	authLimit := middleware.NewFixedWindow(rl, rdb, middleware.ClassAuth, rl.AuthMax)
	payLimit := middleware.NewFixedWindow(rl, rdb, middleware.ClassPayment, rl.PaymentMax)
	apiLimit := middleware.NewFixedWindow(rl, rdb, middleware.ClassAPI, rl.APIMax)
	cached := middleware.NewRedisCache(cache, rdb)

	e.GET("/healthz", h.Health.Check)

	// Account creation and login, no token required.
	auth := e.Group("/v1/auth", authLimit)
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	e.POST("/v1/admin/login", h.Auth.AdminLogin, authLimit)

	// Public reads: the availability grid and the college directory.
	e.GET("/v1/bookings/availability", h.Bookings.Availability, apiLimit, cached)
	e.GET("/v1/colleges", h.Colleges.List, apiLimit, cached)

	// Everything below requires a live session.
	protected := e.Group("/v1", apiLimit, middleware.Auth(cfg.JWTSecret, h.Auth.Sessions, h.Auth.Users))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/profile", h.Auth.Profile)
	protected.PUT("/auth/profile", h.Auth.UpdateProfile)

	protected.POST("/bookings", h.Bookings.Create)
	protected.GET("/bookings", h.Bookings.List)
	protected.GET("/bookings/:id", h.Bookings.Get)
	protected.PUT("/bookings/:id", h.Bookings.Update)
	protected.PATCH("/bookings/:id/cancel", h.Bookings.Cancel)
	protected.DELETE("/bookings/:id", h.Bookings.Cancel)
	protected.POST("/bookings/:id/pay", h.Bookings.Pay, payLimit)

	// Admin dashboard, gated on the role stored with the session.
	admin := e.Group("/v1/admin", apiLimit,
		middleware.Auth(cfg.JWTSecret, h.Auth.Sessions, h.Auth.Users),
		middleware.RequireRole(model.RoleAdmin))
	admin.GET("/bookings", h.Admin.ListBookings)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/stats", h.Admin.GetStats)
	admin.PATCH("/bookings/:id/confirm", h.Admin.Confirm)
	admin.PATCH("/bookings/:id/cancel", h.Admin.Cancel)
}
