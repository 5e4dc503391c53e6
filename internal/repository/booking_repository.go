package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/vr-campus-tours/internal/booking"
	"github.com/iliyamo/vr-campus-tours/internal/model"
)

// BookingRepo provides persistence for bookings and their attendee rosters.
// It implements booking.Store: the insert path runs booking row and
// attendee rows in one transaction, with a locked occupancy re-check so the
// per-slot capacity invariant holds even if another process writes to the
// same slot. All timestamp fields are assumed to be stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const occupancyQuery = `SELECT COALESCE(SUM(participants),0) FROM bookings
WHERE tour_date=? AND location=? AND time_slot=? AND status <> 'cancelled' AND is_donor=0`

// SlotOccupancy returns the sum of participants across non-cancelled,
// non-donor bookings for one slot.
func (r *BookingRepo) SlotOccupancy(ctx context.Context, date, location, slot string) (int, error) {
	var sum int
	err := r.db.QueryRowContext(ctx, occupancyQuery, date, location, slot).Scan(&sum)
	return sum, err
}

// SlotOccupancies returns per-slot participant sums for a (date, location)
// pair in a single GROUP BY query. Slots without bookings are absent from
// the map. Cancelled and donor bookings are excluded, matching the
// capacity-consuming set used at booking time.
func (r *BookingRepo) SlotOccupancies(ctx context.Context, date, location string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT time_slot, COALESCE(SUM(participants),0) FROM bookings
		 WHERE tour_date=? AND location=? AND status <> 'cancelled' AND is_donor=0
		 GROUP BY time_slot`,
		date, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]int)
	for rows.Next() {
		var slot string
		var sum int
		if err := rows.Scan(&slot, &sum); err != nil {
			return nil, err
		}
		sums[slot] = sum
	}
	return sums, rows.Err()
}

// remaining clamps free capacity at zero so oversold legacy rows never
// produce a negative count.
func remaining(occ int) int {
	free := booking.SlotCapacity - occ
	if free < 0 {
		free = 0
	}
	return free
}

// Insert creates the booking with status pending and its attendee rows in a
// single transaction. For non-donor bookings the occupancy is re-aggregated
// under FOR UPDATE inside the transaction and a *booking.CapacityError is
// returned when the request no longer fits; the Reserver's slot mutex makes
// this re-check a formality within one process, but it keeps the invariant
// durable when several instances share the database.
func (r *BookingRepo) Insert(ctx context.Context, req *booking.Request, totalCost int) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if !req.IsDonor {
		var occ int
		if err := tx.QueryRowContext(ctx, occupancyQuery+" FOR UPDATE",
			req.Date, req.Location, req.TimeSlot).Scan(&occ); err != nil {
			return nil, err
		}
		if free := remaining(occ); req.Participants > free {
			return nil, &booking.CapacityError{Available: free}
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings
		 (user_id, tour_date, location, time_slot, participants, donation_tickets, total_cost, status, is_donor, college_id)
		 VALUES (?,?,?,?,?,?,?,'pending',?,?)`,
		req.UserID, req.Date, req.Location, req.TimeSlot,
		req.Participants, req.DonationTickets, totalCost, req.IsDonor, req.CollegeID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := insertAttendeesTx(ctx, tx, uint64(id), req.Attendees); err != nil {
		return nil, err
	}

	b, err := scanBookingTx(ctx, tx, uint64(id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// insertAttendeesTx bulk-inserts attendee rows in a single statement.
// Passing an empty slice has no effect and returns nil.
func insertAttendeesTx(ctx context.Context, tx *sql.Tx, bookingID uint64, attendees []model.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	query := `INSERT INTO attendees
	 (booking_id, first_name, last_name, full_name, email, grade, school, current_school, interest, gpa, email_consent) VALUES `
	args := make([]interface{}, 0, len(attendees)*11)
	for i, a := range attendees {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?,?,?,?,?,?,?,?)"
		args = append(args, bookingID,
			nullStr(a.FirstName), nullStr(a.LastName), nullStr(a.FullName),
			nullStr(a.Email), nullStr(a.Grade), nullStr(a.School),
			nullStr(a.CurrentSchool), nullStr(a.Interest), a.GPA, a.EmailConsent)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

const bookingColumns = `id, user_id, tour_date, location, time_slot, participants,
 donation_tickets, total_cost, status, is_donor, college_id, payment_ref, created_at, updated_at`

func scanBooking(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	var date time.Time
	var collegeID sql.NullInt64
	var paymentRef sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &date, &b.Location, &b.TimeSlot,
		&b.Participants, &b.DonationTickets, &b.TotalCost, &b.Status, &b.IsDonor,
		&collegeID, &paymentRef, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.TourDate = date.Format("2006-01-02")
	if collegeID.Valid {
		v := uint64(collegeID.Int64)
		b.CollegeID = &v
	}
	if paymentRef.Valid {
		v := paymentRef.String
		b.PaymentRef = &v
	}
	return &b, nil
}

func scanBookingTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=?", id))
}

// GetByID fetches a booking regardless of owner (admin paths).
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=?", id))
}

// GetByIDForUser fetches a booking scoped to its owner. A booking owned by
// someone else is indistinguishable from a missing one: both surface as
// sql.ErrNoRows so the handler answers 404 either way.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? AND user_id=?", id, userID))
}

// ListByUser returns all bookings owned by a user, newest first, with their
// attendee rosters attached.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingWithAttendees, error) {
	return r.list(ctx, "WHERE user_id=?", userID)
}

// ListAll returns every booking, newest first, with attendees (admin).
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingWithAttendees, error) {
	return r.list(ctx, "")
}

// BookingWithAttendees pairs a booking with its roster for listings.
type BookingWithAttendees struct {
	Booking   model.Booking
	Attendees []model.Attendee
}

func (r *BookingRepo) list(ctx context.Context, where string, args ...interface{}) ([]BookingWithAttendees, error) {
	q := "SELECT " + bookingColumns + " FROM bookings " + where + " ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []BookingWithAttendees{}
	index := map[uint64]int{}
	for rows.Next() {
		var b model.Booking
		var date time.Time
		var collegeID sql.NullInt64
		var paymentRef sql.NullString
		if err := rows.Scan(&b.ID, &b.UserID, &date, &b.Location, &b.TimeSlot,
			&b.Participants, &b.DonationTickets, &b.TotalCost, &b.Status, &b.IsDonor,
			&collegeID, &paymentRef, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.TourDate = date.Format("2006-01-02")
		if collegeID.Valid {
			v := uint64(collegeID.Int64)
			b.CollegeID = &v
		}
		if paymentRef.Valid {
			v := paymentRef.String
			b.PaymentRef = &v
		}
		index[b.ID] = len(items)
		items = append(items, BookingWithAttendees{Booking: b, Attendees: []model.Attendee{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]interface{}, 0, len(items))
	ph := ""
	for i, it := range items {
		if i > 0 {
			ph += ","
		}
		ph += "?"
		ids = append(ids, it.Booking.ID)
	}
	arows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(full_name,''),
		 COALESCE(email,''), COALESCE(grade,''), COALESCE(school,''), COALESCE(current_school,''),
		 COALESCE(interest,''), gpa, email_consent, created_at
		 FROM attendees WHERE booking_id IN (`+ph+`) ORDER BY id`, ids...)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var a model.Attendee
		if err := arows.Scan(&a.ID, &a.BookingID, &a.FirstName, &a.LastName, &a.FullName,
			&a.Email, &a.Grade, &a.School, &a.CurrentSchool, &a.Interest, &a.GPA,
			&a.EmailConsent, &a.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[a.BookingID]; ok {
			items[i].Attendees = append(items[i].Attendees, a)
		}
	}
	return items, arows.Err()
}

// AttendeesByBooking returns the roster of one booking, insertion order.
func (r *BookingRepo) AttendeesByBooking(ctx context.Context, bookingID uint64) ([]model.Attendee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(full_name,''),
		 COALESCE(email,''), COALESCE(grade,''), COALESCE(school,''), COALESCE(current_school,''),
		 COALESCE(interest,''), gpa, email_consent, created_at
		 FROM attendees WHERE booking_id=? ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []model.Attendee{}
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.ID, &a.BookingID, &a.FirstName, &a.LastName, &a.FullName,
			&a.Email, &a.Grade, &a.School, &a.CurrentSchool, &a.Interest, &a.GPA,
			&a.EmailConsent, &a.CreatedAt); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// UpdateChecked persists the whitelisted mutable fields of a booking.
// Status is deliberately not part of the whitelist; status moves only
// through the cancel/confirm paths. updated_at refreshes via the column
// default. For non-donor bookings the target slot's occupancy is
// re-aggregated under FOR UPDATE in the same transaction as the write,
// excluding the booking's own row, so a concurrent insert cannot land
// between the capacity check and the update and oversell the slot.
func (r *BookingRepo) UpdateChecked(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if !b.IsDonor {
		var occ int
		if err := tx.QueryRowContext(ctx, occupancyQuery+" AND id <> ? FOR UPDATE",
			b.TourDate, b.Location, b.TimeSlot, b.ID).Scan(&occ); err != nil {
			return err
		}
		if free := remaining(occ); b.Participants > free {
			return &booking.CapacityError{Available: free}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET tour_date=?, location=?, time_slot=?, participants=?,
		 donation_tickets=?, total_cost=?, college_id=? WHERE id=?`,
		b.TourDate, b.Location, b.TimeSlot, b.Participants,
		b.DonationTickets, b.TotalCost, b.CollegeID, b.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// MarkCancelled flips a booking to cancelled. The guard clause makes a
// repeated cancel a no-op at the SQL level; zero affected rows surfaces as
// ErrAlreadyCancelled.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status='cancelled' WHERE id=? AND status <> 'cancelled'", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

// MarkConfirmed moves a pending booking to confirmed and records the
// payment reference. Admin confirmations pass an empty reference, stored as
// NULL. Bookings in any other state return ErrNotPending.
func (r *BookingRepo) MarkConfirmed(ctx context.Context, id uint64, paymentRef string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status='confirmed', payment_ref=? WHERE id=? AND status='pending'",
		nullStr(paymentRef), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}
