package model

import "time"

// Booking records a reservation of one time slot at a VR tour location for
// a number of participants. A booking owns its attendee roster and is never
// hard-deleted: cancellation flips the status to "cancelled" and the row
// stays behind for reporting.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the booking.
//  TourDate        – calendar date of the session (YYYY-MM-DD).
//  Location        – physical VR location, e.g. "Atlanta, GA".
//  TimeSlot        – one of the four fixed slot labels.
//  Participants    – seats reserved (>= 1).
//  DonationTickets – sponsored tickets bought on top of the seats.
//  TotalCost       – derived charge in whole dollars; always recomputed
//                    server-side, never trusted from the client.
//  Status          – pending, confirmed or cancelled.
//  IsDonor         – donor bookings do not consume slot capacity.
//  CollegeID       – optional reference into the college directory.
//  PaymentRef      – gateway charge reference once captured (nullable).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID              uint64    // bookings.id
	UserID          uint64    // bookings.user_id
	TourDate        string    // bookings.tour_date
	Location        string    // bookings.location
	TimeSlot        string    // bookings.time_slot
	Participants    int       // bookings.participants
	DonationTickets int       // bookings.donation_tickets
	TotalCost       int       // bookings.total_cost
	Status          string    // bookings.status
	IsDonor         bool      // bookings.is_donor
	CollegeID       *uint64   // bookings.college_id (nullable)
	PaymentRef      *string   // bookings.payment_ref (nullable)
	CreatedAt       time.Time // bookings.created_at
	UpdatedAt       time.Time // bookings.updated_at
}

// Booking status values. The only transitions the server performs are
// pending -> confirmed (payment capture or admin confirm) and
// {pending,confirmed} -> cancelled. cancelled is terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)
