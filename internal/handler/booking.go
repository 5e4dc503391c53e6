package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vr-campus-tours/internal/booking"
	"github.com/iliyamo/vr-campus-tours/internal/model"
	"github.com/iliyamo/vr-campus-tours/internal/payment"
	"github.com/iliyamo/vr-campus-tours/internal/queue"
	"github.com/iliyamo/vr-campus-tours/internal/repository"
	queue_publisher "github.com/iliyamo/vr-campus-tours/internal/service"
	"github.com/iliyamo/vr-campus-tours/internal/utils"
)

// BookingHandler groups the dependencies for the booking flow: the
// repository for reads and status changes, the Reserver for the serialized
// create path, and the payment client for capture. All mutating methods
// assume JWT authentication already ran; they may return 401 when the user
// ID cannot be extracted from the context.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Reserver *booking.Reserver
	Payments *payment.Client
}

// NewBookingHandler constructs a BookingHandler. All dependencies must be
// non-nil.
func NewBookingHandler(repo *repository.BookingRepo, reserver *booking.Reserver, payments *payment.Client) *BookingHandler {
	if repo == nil || reserver == nil || payments == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: repo, Reserver: reserver, Payments: payments}
}

// ----- DTOs -----

// attendeeReq accepts both historical input shapes: the legacy single-name
// form (name/grade/school) and the newer structured form. Either may appear
// inside one request.
type attendeeReq struct {
	Name          string   `json:"name"` // legacy single name
	Grade         string   `json:"grade"`
	School        string   `json:"school"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email"`
	CurrentSchool string   `json:"currentSchool"`
	Interest      string   `json:"interest"`
	GPA           *float64 `json:"gpa"`
	EmailConsent  bool     `json:"emailConsent"`
}

func (a attendeeReq) toModel() model.Attendee {
	return model.Attendee{
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		FullName:      a.Name,
		Email:         a.Email,
		Grade:         a.Grade,
		School:        a.School,
		CurrentSchool: a.CurrentSchool,
		Interest:      a.Interest,
		GPA:           a.GPA,
		EmailConsent:  a.EmailConsent,
	}
}

type createBookingReq struct {
	Date            string        `json:"date"`
	Location        string        `json:"location"`
	TimeSlot        string        `json:"time_slot"`
	Participants    int           `json:"participants"`
	DonationTickets int           `json:"donation_tickets"`
	TotalCost       int           `json:"total_cost"` // accepted but ignored; cost is derived server-side
	IsDonor         bool          `json:"is_donor"`
	CollegeID       *uint64       `json:"college_id"`
	Attendees       []attendeeReq `json:"attendees"`
}

type updateBookingReq struct {
	Date            *string `json:"date"`
	Location        *string `json:"location"`
	TimeSlot        *string `json:"time_slot"`
	Participants    *int    `json:"participants"`
	DonationTickets *int    `json:"donation_tickets"`
	CollegeID       *uint64 `json:"college_id"`
}

type payReq struct {
	CardNumber string `json:"cardNumber"`
	CardExpiry string `json:"cardExpiry"`
	CardCVV    string `json:"cardCVV"`
}

type attendeeView struct {
	ID            uint64   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Grade         string   `json:"grade,omitempty"`
	School        string   `json:"school,omitempty"`
	FirstName     string   `json:"firstName,omitempty"`
	LastName      string   `json:"lastName,omitempty"`
	Email         string   `json:"email,omitempty"`
	CurrentSchool string   `json:"currentSchool,omitempty"`
	Interest      string   `json:"interest,omitempty"`
	GPA           *float64 `json:"gpa,omitempty"`
	EmailConsent  bool     `json:"emailConsent"`
}

type bookingView struct {
	ID              uint64         `json:"id"`
	Date            string         `json:"date"`
	Location        string         `json:"location"`
	TimeSlot        string         `json:"time_slot"`
	Participants    int            `json:"participants"`
	DonationTickets int            `json:"donation_tickets"`
	TotalCost       int            `json:"total_cost"`
	Status          string         `json:"status"`
	IsDonor         bool           `json:"is_donor"`
	CollegeID       *uint64        `json:"college_id,omitempty"`
	PaymentRef      *string        `json:"payment_ref,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Attendees       []attendeeView `json:"attendees"`
}

func attendeeViews(attendees []model.Attendee) []attendeeView {
	out := make([]attendeeView, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, attendeeView{
			ID:            a.ID,
			Name:          a.FullName,
			Grade:         a.Grade,
			School:        a.School,
			FirstName:     a.FirstName,
			LastName:      a.LastName,
			Email:         a.Email,
			CurrentSchool: a.CurrentSchool,
			Interest:      a.Interest,
			GPA:           a.GPA,
			EmailConsent:  a.EmailConsent,
		})
	}
	return out
}

func bookingViewOf(b *model.Booking, attendees []model.Attendee) bookingView {
	return bookingView{
		ID:              b.ID,
		Date:            b.TourDate,
		Location:        b.Location,
		TimeSlot:        b.TimeSlot,
		Participants:    b.Participants,
		DonationTickets: b.DonationTickets,
		TotalCost:       b.TotalCost,
		Status:          b.Status,
		IsDonor:         b.IsDonor,
		CollegeID:       b.CollegeID,
		PaymentRef:      b.PaymentRef,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		Attendees:       attendeeViews(attendees),
	}
}

func bookingEvent(evType string, b *model.Booking) queue.BookingEvent {
	ev := queue.BookingEvent{
		Type:            evType,
		BookingID:       b.ID,
		UserID:          b.UserID,
		TourDate:        b.TourDate,
		Location:        b.Location,
		TimeSlot:        b.TimeSlot,
		Participants:    b.Participants,
		DonationTickets: b.DonationTickets,
		TotalCost:       b.TotalCost,
		Status:          b.Status,
		IsDonor:         b.IsDonor,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if b.PaymentRef != nil {
		ev.PaymentRef = *b.PaymentRef
	}
	return ev
}

// Availability handles GET /v1/bookings/availability?date&location. It
// returns the four fixed slots with occupancy and remaining capacity.
// Donor bookings never appear in the occupancy sums; the same
// capacity-consuming set is used here and at booking time so the listing
// and the create check can never disagree.
func (h *BookingHandler) Availability(c echo.Context) error {
	date := c.QueryParam("date")
	location := c.QueryParam("location")
	if date == "" || location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date and location are required"})
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sums, err := h.Bookings.SlotOccupancies(ctx, date, location)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":     date,
		"location": location,
		"sessions": booking.Sessions(sums),
	})
}

// Create handles POST /v1/bookings. Validation, the capacity gate and the
// transactional insert all live in the Reserver; this handler translates
// its errors: *ValidationError -> 400, *CapacityError -> 409 with
// availableSpots. A booking.created event goes out after the row is
// committed, best effort.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	attendees := make([]model.Attendee, 0, len(req.Attendees))
	for _, a := range req.Attendees {
		attendees = append(attendees, a.toModel())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Reserver.Reserve(ctx, &booking.Request{
		UserID:          userID,
		Date:            req.Date,
		Location:        req.Location,
		TimeSlot:        req.TimeSlot,
		Participants:    req.Participants,
		DonationTickets: req.DonationTickets,
		IsDonor:         req.IsDonor,
		CollegeID:       req.CollegeID,
		Attendees:       attendees,
	})
	if err != nil {
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error()})
		}
		var cerr *booking.CapacityError
		if errors.As(err, &cerr) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":          "not enough spots in this session",
				"availableSpots": cerr.Available,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	_ = queue_publisher.PublishBookingEvent(ctx, bookingEvent(queue.EventBookingCreated, b))

	roster, err := h.Bookings.AttendeesByBooking(ctx, b.ID)
	if err != nil {
		roster = nil
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": bookingViewOf(b, roster)})
}

// List handles GET /v1/bookings: the user's own bookings with attendees,
// newest first.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	views := make([]bookingView, 0, len(items))
	for i := range items {
		views = append(views, bookingViewOf(&items[i].Booking, items[i].Attendees))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": views})
}

// Get handles GET /v1/bookings/:id, scoped to the owner. A booking owned
// by someone else reads as 404.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	roster, err := h.Bookings.AttendeesByBooking(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": bookingViewOf(b, roster)})
}

// Update handles PUT /v1/bookings/:id. Only whitelisted fields are
// patched, a cancelled booking rejects any update, total_cost is
// recomputed from the patched counts, and the write goes through
// Reserver.Rebook so the capacity re-check and the row update cannot be
// interleaved with a concurrent reservation.
func (h *BookingHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if b.Status == model.StatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot update a cancelled booking"})
	}

	prev := *b

	if req.Date != nil {
		b.TourDate = *req.Date
	}
	if req.Location != nil {
		b.Location = *req.Location
	}
	if req.TimeSlot != nil {
		b.TimeSlot = *req.TimeSlot
	}
	if req.Participants != nil {
		b.Participants = *req.Participants
	}
	if req.DonationTickets != nil {
		b.DonationTickets = *req.DonationTickets
	}
	if req.CollegeID != nil {
		b.CollegeID = req.CollegeID
	}

	if err := booking.Validate(&booking.Request{
		UserID:          b.UserID,
		Date:            b.TourDate,
		Location:        b.Location,
		TimeSlot:        b.TimeSlot,
		Participants:    b.Participants,
		DonationTickets: b.DonationTickets,
		IsDonor:         b.IsDonor,
	}); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b.TotalCost = booking.TotalCost(b.Participants, b.DonationTickets)

	if err := h.Reserver.Rebook(ctx, &prev, b); err != nil {
		var cerr *booking.CapacityError
		if errors.As(err, &cerr) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":          "not enough spots in this session",
				"availableSpots": cerr.Available,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}
	updated, err := h.Bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	roster, _ := h.Bookings.AttendeesByBooking(ctx, id)
	return c.JSON(http.StatusOK, echo.Map{"booking": bookingViewOf(updated, roster)})
}

// Cancel handles PATCH /v1/bookings/:id/cancel and DELETE /v1/bookings/:id.
// Both routes share one semantics: cancellation is refused once the slot's
// start time has been reached on the tour date, and a repeated cancel is
// rejected with a specific "already cancelled" error rather than silently
// succeeding. Rows are never physically removed.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if b.Status == model.StatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	}

	ok, err := utils.CancellableAt(b.TourDate, b.TimeSlot, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to evaluate cancellation window"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "session has already started, booking can no longer be cancelled"})
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

// Pay handles POST /v1/bookings/:id/pay. It charges the derived total
// through the payment provider and moves the booking pending -> confirmed,
// recording the charge reference. Only pending bookings can be paid.
func (h *BookingHandler) Pay(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req payReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if b.Status != model.StatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not pending"})
	}

	charge, err := h.Payments.Charge(ctx, payment.Card{
		Number: req.CardNumber,
		Expiry: req.CardExpiry,
		CVV:    req.CardCVV,
	}, b.TotalCost)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidCard) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid card details"})
		}
		if errors.Is(err, payment.ErrChargeDeclined) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment was declined"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
	}

	if err := h.Bookings.MarkConfirmed(ctx, id, charge.Ref); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm booking"})
	}

	b.Status = model.StatusConfirmed
	b.PaymentRef = &charge.Ref
	_ = queue_publisher.PublishBookingEvent(ctx, bookingEvent(queue.EventBookingConfirmed, b))

	return c.JSON(http.StatusOK, echo.Map{
		"booking":    bookingViewOf(b, nil),
		"chargeRef":  charge.Ref,
		"cardLast4":  charge.Last4,
		"capturedAt": charge.CapturedAt.Format(time.RFC3339),
	})
}
