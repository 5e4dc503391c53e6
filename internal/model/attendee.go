package model

import "time"

// Attendee is a per-seat record owned by exactly one booking and removed
// with it via cascade. Two historical input shapes feed this table: the
// legacy one (a single name plus grade/school) and the newer one
// (first/last name, email, current school, interest, GPA, consent). Both
// are stored in the same row with optional columns rather than as two
// parallel schemas; every persisted row has at least one usable name.
//
// Fields:
//  ID            – primary key identifier.
//  BookingID     – owning booking.
//  FirstName     – given name (new shape).
//  LastName      – family name (new shape).
//  FullName      – single legacy name, kept verbatim.
//  Email         – contact email (new shape, optional).
//  Grade         – school grade (legacy shape).
//  School        – school name (legacy shape).
//  CurrentSchool – school name (new shape).
//  Interest      – area of academic interest.
//  GPA           – grade point average (nullable).
//  EmailConsent  – whether the attendee agreed to email contact.
//  CreatedAt     – creation timestamp.
type Attendee struct {
	ID            uint64    // attendees.id
	BookingID     uint64    // attendees.booking_id
	FirstName     string    // attendees.first_name
	LastName      string    // attendees.last_name
	FullName      string    // attendees.full_name (legacy)
	Email         string    // attendees.email
	Grade         string    // attendees.grade (legacy)
	School        string    // attendees.school (legacy)
	CurrentSchool string    // attendees.current_school
	Interest      string    // attendees.interest
	GPA           *float64  // attendees.gpa (nullable)
	EmailConsent  bool      // attendees.email_consent
	CreatedAt     time.Time // attendees.created_at
}

// DisplayName prefers the structured first/last pair and falls back to the
// legacy single name.
func (a Attendee) DisplayName() string {
	if a.FirstName != "" || a.LastName != "" {
		switch {
		case a.FirstName == "":
			return a.LastName
		case a.LastName == "":
			return a.FirstName
		}
		return a.FirstName + " " + a.LastName
	}
	return a.FullName
}

// HasName reports whether the attendee carries any usable name. Nameless
// attendees are dropped before insertion instead of being persisted as
// empty rows.
func (a Attendee) HasName() bool {
	return a.FirstName != "" || a.LastName != "" || a.FullName != ""
}
