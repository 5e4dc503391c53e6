package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vr-campus-tours/internal/model"
	"github.com/iliyamo/vr-campus-tours/internal/queue"
	"github.com/iliyamo/vr-campus-tours/internal/repository"
	queue_publisher "github.com/iliyamo/vr-campus-tours/internal/service"
)

// AdminHandler serves the reporting and moderation endpoints. Every route
// using it sits behind the admin role check, so methods here do not
// re-verify the caller's role.
type AdminHandler struct {
	Bookings *repository.BookingRepo
	Users    *repository.UserRepo
	Stats    *repository.StatsRepo
}

func NewAdminHandler(bookings *repository.BookingRepo, users *repository.UserRepo, stats *repository.StatsRepo) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Users: users, Stats: stats}
}

// ListBookings handles GET /v1/admin/bookings: every booking in the
// system regardless of owner, with attendees, newest first.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	items, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	views := make([]bookingView, 0, len(items))
	for i := range items {
		views = append(views, bookingViewOf(&items[i].Booking, items[i].Attendees))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": views})
}

// ListUsers handles GET /v1/admin/users. Password hashes never leave the
// repository layer's model, and never this handler.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	views := make([]userPart, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": views})
}

// GetStats handles GET /v1/admin/stats.
func (h *AdminHandler) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Stats.Load(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

// Confirm handles PATCH /v1/admin/bookings/:id/confirm. An admin can move
// a pending booking to confirmed without a payment, for example when the
// group pays on site. The payment reference stays NULL in that case.
func (h *AdminHandler) Confirm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}

	if err := h.Bookings.MarkConfirmed(ctx, id, ""); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm booking"})
	}

	b.Status = model.StatusConfirmed
	_ = queue_publisher.PublishBookingEvent(ctx, bookingEvent(queue.EventBookingConfirmed, b))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.StatusConfirmed})
}

// Cancel handles PATCH /v1/admin/bookings/:id/cancel. Unlike the
// customer route there is no time gate; an admin may cancel after the
// session has started, for example to correct a no-show.
func (h *AdminHandler) Cancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}

	if err := h.Bookings.MarkCancelled(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAlreadyCancelled) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}

	b.Status = model.StatusCancelled
	_ = queue_publisher.PublishBookingEvent(ctx, bookingEvent(queue.EventBookingCancelled, b))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.StatusCancelled})
}
