// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published to the booking.events queue.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published on every booking lifecycle change. It carries
// enough information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type BookingEvent struct {
	Type            string `json:"type"`
	BookingID       uint64 `json:"booking_id"`
	UserID          uint64 `json:"user_id"`
	TourDate        string `json:"tour_date"`
	Location        string `json:"location"`
	TimeSlot        string `json:"time_slot"`
	Participants    int    `json:"participants"`
	DonationTickets int    `json:"donation_tickets"`
	TotalCost       int    `json:"total_cost"`
	Status          string `json:"status"`
	IsDonor         bool   `json:"is_donor"`
	PaymentRef      string `json:"payment_ref,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}
