package booking

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/iliyamo/vr-campus-tours/internal/model"
)

// Request carries everything needed to create a booking. TotalCost is
// intentionally absent: it is derived from participants and donation
// tickets, never accepted from the caller.
type Request struct {
	UserID          uint64
	Date            string // YYYY-MM-DD
	Location        string
	TimeSlot        string
	Participants    int
	DonationTickets int
	IsDonor         bool
	CollegeID       *uint64
	Attendees       []model.Attendee
}

// Store persists bookings. Insert must write the booking row and its
// attendee rows atomically so a partial failure can never leave a booking
// without its roster. UpdateChecked must re-verify capacity and write the
// row in one transaction so the check cannot go stale before the write.
type Store interface {
	// SlotOccupancy returns the sum of participants across non-cancelled,
	// non-donor bookings for the slot.
	SlotOccupancy(ctx context.Context, date, location, slot string) (int, error)
	// Insert writes the booking with status pending and returns the stored row.
	Insert(ctx context.Context, req *Request, totalCost int) (*model.Booking, error)
	// UpdateChecked persists the mutable fields of an existing booking,
	// re-checking the target slot's capacity (excluding the booking's own
	// seats) atomically with the write.
	UpdateChecked(ctx context.Context, b *model.Booking) error
}

// CapacityError reports that a non-donor booking does not fit into its
// target slot. Available carries the remaining seat count so the client
// can show it.
type CapacityError struct {
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("slot is full: %d spots available", e.Available)
}

// ValidationError marks a request rejected before touching storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Reserver serializes capacity check and insert per (date, location, slot).
// Two concurrent creations for the same slot used to be able to both pass
// the occupancy check and both insert; the keyed mutex closes that window
// for this process while the store's insert transaction remains the durable
// guard underneath.
type Reserver struct {
	store Store
	locks sync.Map // slot key -> *sync.Mutex
}

// NewReserver returns a Reserver backed by the given store.
func NewReserver(store Store) *Reserver {
	if store == nil {
		panic("nil store passed to NewReserver")
	}
	return &Reserver{store: store}
}

func slotKey(date, location, slot string) string {
	return date + "|" + location + "|" + slot
}

func (r *Reserver) mutexFor(key string) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (r *Reserver) slotMutex(date, location, slot string) *sync.Mutex {
	return r.mutexFor(slotKey(date, location, slot))
}

// Validate checks request preconditions without touching storage. It is
// exported so update paths can reuse the same rules.
func Validate(req *Request) error {
	if !dateRe.MatchString(req.Date) {
		return &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	if req.Location == "" {
		return &ValidationError{Field: "location", Message: "is required"}
	}
	if !ValidSlot(req.TimeSlot) {
		return &ValidationError{Field: "time_slot", Message: "unknown time slot"}
	}
	if req.Participants < 1 {
		return &ValidationError{Field: "participants", Message: "must be at least 1"}
	}
	if !req.IsDonor && req.Participants > MaxParticipants {
		return &ValidationError{Field: "participants", Message: fmt.Sprintf("must not exceed %d", MaxParticipants)}
	}
	if req.DonationTickets < 0 {
		return &ValidationError{Field: "donation_tickets", Message: "must not be negative"}
	}
	return nil
}

// Reserve validates the request, checks remaining capacity for non-donor
// bookings and inserts the booking with its attendee roster. Attendees
// without any name are silently dropped. Returns *CapacityError when the
// participants do not fit, *ValidationError on bad input.
func (r *Reserver) Reserve(ctx context.Context, req *Request) (*model.Booking, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	kept := req.Attendees[:0:0]
	for _, a := range req.Attendees {
		if a.HasName() {
			kept = append(kept, a)
		}
	}
	req.Attendees = kept

	if req.IsDonor {
		// Donor bookings skip the capacity gate entirely.
		return r.store.Insert(ctx, req, TotalCost(req.Participants, req.DonationTickets))
	}

	mu := r.slotMutex(req.Date, req.Location, req.TimeSlot)
	mu.Lock()
	defer mu.Unlock()

	occ, err := r.store.SlotOccupancy(ctx, req.Date, req.Location, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	free := SlotCapacity - occ
	if free < 0 {
		free = 0
	}
	if req.Participants > free {
		return nil, &CapacityError{Available: free}
	}
	return r.store.Insert(ctx, req, TotalCost(req.Participants, req.DonationTickets))
}

// Rebook moves an existing booking to the state described by next: a new
// headcount, a new slot, or both. prev is the stored row before the change.
// The capacity check and the write happen under the slot mutex (both slots
// when the booking moves, locked in a stable order), and the store's
// update re-verifies the occupancy inside its own transaction, so a
// concurrent Reserve cannot slip between check and write and oversell the
// slot. Returns *CapacityError when next does not fit.
func (r *Reserver) Rebook(ctx context.Context, prev, next *model.Booking) error {
	if next.IsDonor {
		return r.store.UpdateChecked(ctx, next)
	}

	prevKey := slotKey(prev.TourDate, prev.Location, prev.TimeSlot)
	nextKey := slotKey(next.TourDate, next.Location, next.TimeSlot)
	for _, key := range lockOrder(prevKey, nextKey) {
		mu := r.mutexFor(key)
		mu.Lock()
		defer mu.Unlock()
	}

	occ, err := r.store.SlotOccupancy(ctx, next.TourDate, next.Location, next.TimeSlot)
	if err != nil {
		return err
	}
	if prevKey == nextKey {
		// Seats the booking already holds count as free.
		occ -= prev.Participants
		if occ < 0 {
			occ = 0
		}
	}
	free := SlotCapacity - occ
	if free < 0 {
		free = 0
	}
	if next.Participants > free {
		return &CapacityError{Available: free}
	}
	return r.store.UpdateChecked(ctx, next)
}

// lockOrder returns the distinct keys in a stable order so two concurrent
// rebooks between the same pair of slots can never deadlock.
func lockOrder(a, b string) []string {
	if a == b {
		return []string{a}
	}
	if a > b {
		a, b = b, a
	}
	return []string{a, b}
}
