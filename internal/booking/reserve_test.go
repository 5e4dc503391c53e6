package booking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vr-campus-tours/internal/model"
)

// fakeStore mimics the naive check-then-insert storage path: occupancy reads
// and inserts are individually consistent but nothing inside the store
// serializes them. Any overselling protection has to come from the Reserver.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   []*model.Booking
}

func (s *fakeStore) SlotOccupancy(_ context.Context, date, location, slot string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, b := range s.rows {
		if b.TourDate == date && b.Location == location && b.TimeSlot == slot &&
			b.Status != model.StatusCancelled && !b.IsDonor {
			sum += b.Participants
		}
	}
	return sum, nil
}

func (s *fakeStore) Insert(_ context.Context, req *Request, totalCost int) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b := &model.Booking{
		ID:              s.nextID,
		UserID:          req.UserID,
		TourDate:        req.Date,
		Location:        req.Location,
		TimeSlot:        req.TimeSlot,
		Participants:    req.Participants,
		DonationTickets: req.DonationTickets,
		TotalCost:       totalCost,
		Status:          model.StatusPending,
		IsDonor:         req.IsDonor,
	}
	s.rows = append(s.rows, b)
	return b, nil
}

func (s *fakeStore) UpdateChecked(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == b.ID {
			cp := *b
			s.rows[i] = &cp
			return nil
		}
	}
	return nil
}

func validRequest() *Request {
	return &Request{
		UserID:       1,
		Date:         "2025-08-30",
		Location:     "Atlanta, GA",
		TimeSlot:     "9:00 AM - 10:15 AM",
		Participants: 1,
		Attendees: []model.Attendee{
			{FirstName: "Ada", LastName: "Lovelace"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		field   string
	}{
		{"bad date", func(r *Request) { r.Date = "08/30/2025" }, "date"},
		{"missing location", func(r *Request) { r.Location = "" }, "location"},
		{"unknown slot", func(r *Request) { r.TimeSlot = "3:00 PM - 4:15 PM" }, "time_slot"},
		{"zero participants", func(r *Request) { r.Participants = 0 }, "participants"},
		{"over participant cap", func(r *Request) { r.Participants = 101 }, "participants"},
		{"negative donation tickets", func(r *Request) { r.DonationTickets = -1 }, "donation_tickets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := Validate(req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("valid request passes", func(t *testing.T) {
		assert.NoError(t, Validate(validRequest()))
	})

	t.Run("donor exceeds non-donor participant cap", func(t *testing.T) {
		req := validRequest()
		req.IsDonor = true
		req.Participants = 250
		assert.NoError(t, Validate(req))
	})
}

func TestTotalCost(t *testing.T) {
	assert.Equal(t, 40, TotalCost(1, 0))
	assert.Equal(t, 200, TotalCost(3, 2))
	assert.Equal(t, 1000, TotalCost(25, 0))
}

func TestReserveDerivesCost(t *testing.T) {
	r := NewReserver(&fakeStore{})
	req := validRequest()
	req.Participants = 4
	req.DonationTickets = 2

	b, err := r.Reserve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, TotalCost(4, 2), b.TotalCost)
	assert.Equal(t, model.StatusPending, b.Status)
}

func TestReserveDropsNamelessAttendees(t *testing.T) {
	r := NewReserver(&fakeStore{})
	req := validRequest()
	req.Attendees = []model.Attendee{
		{FirstName: "Grace", LastName: "Hopper"},
		{Email: "noname@example.com"}, // no name, dropped
		{FullName: "Katherine Johnson"},
	}

	_, err := r.Reserve(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, req.Attendees, 2)
}

func TestReserveFullSlot(t *testing.T) {
	store := &fakeStore{}
	r := NewReserver(store)

	first := validRequest()
	first.Participants = 25
	_, err := r.Reserve(context.Background(), first)
	require.NoError(t, err)

	second := validRequest()
	second.Participants = 1
	_, err = r.Reserve(context.Background(), second)
	var cerr *CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 0, cerr.Available)
}

func TestReserveReportsRemainingSpots(t *testing.T) {
	store := &fakeStore{}
	r := NewReserver(store)

	first := validRequest()
	first.Participants = 20
	_, err := r.Reserve(context.Background(), first)
	require.NoError(t, err)

	second := validRequest()
	second.Participants = 10
	_, err = r.Reserve(context.Background(), second)
	var cerr *CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 5, cerr.Available)
}

func TestReserveDonorSkipsCapacity(t *testing.T) {
	store := &fakeStore{}
	r := NewReserver(store)

	full := validRequest()
	full.Participants = 25
	_, err := r.Reserve(context.Background(), full)
	require.NoError(t, err)

	donor := validRequest()
	donor.IsDonor = true
	donor.Participants = 50
	_, err = r.Reserve(context.Background(), donor)
	require.NoError(t, err)

	// Donor seats never consume capacity: the slot still reads as full, not over.
	occ, err := store.SlotOccupancy(context.Background(), donor.Date, donor.Location, donor.TimeSlot)
	require.NoError(t, err)
	assert.Equal(t, 25, occ)
}

// TestReserveConcurrent hammers one slot from many goroutines and asserts the
// capacity invariant holds: the accepted non-donor participants never exceed
// SlotCapacity, and every rejection carries a remaining-spot count.
func TestReserveConcurrent(t *testing.T) {
	store := &fakeStore{}
	r := NewReserver(store)

	const workers = 50
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.UserID = uint64(i + 1)
			req.Participants = 2
			_, errs[i] = r.Reserve(context.Background(), req)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		var cerr *CapacityError
		require.ErrorAs(t, err, &cerr)
	}

	occ, err := store.SlotOccupancy(context.Background(), "2025-08-30", "Atlanta, GA", "9:00 AM - 10:15 AM")
	require.NoError(t, err)
	assert.LessOrEqual(t, occ, SlotCapacity)
	assert.Equal(t, occ, accepted*2)
	// 50 requests of 2 seats against 25 capacity: exactly 12 fit.
	assert.Equal(t, 12, accepted)
}

func TestRebookGrowsWithinCapacity(t *testing.T) {
	store := &fakeStore{}
	r := NewReserver(store)

	first := validRequest()
	first.Participants = 20
	b, err := r.Reserve(context.Background(), first)
	require.NoError(t, err)

	// Growing the same booking from 20 to 25 fits because its own 20 seats
	// are treated as free during the re-check.
	prev := *b
	next := *b
	next.Participants = 25
	require.NoError(t, r.Rebook(context.Background(), &prev, &next))

	occ, err := store.SlotOccupancy(context.Background(), b.TourDate, b.Location, b.TimeSlot)
	require.NoError(t, err)
	assert.Equal(t, 25, occ)

	// Growing to 26 does not.
	over := next
	over.Participants = 26
	var cerr *CapacityError
	err = r.Rebook(context.Background(), &next, &over)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 25, cerr.Available)
}

func TestRebookMovesSlots(t *testing.T) {
	store := &fakeStore{}
	r := NewReserver(store)

	blocker := validRequest()
	blocker.TimeSlot = "10:30 AM - 11:45 AM"
	blocker.Participants = 24
	_, err := r.Reserve(context.Background(), blocker)
	require.NoError(t, err)

	first := validRequest()
	first.Participants = 10
	b, err := r.Reserve(context.Background(), first)
	require.NoError(t, err)

	// Moving into the nearly-full slot: the booking's own seats are in the
	// old slot and count for nothing in the new one.
	prev := *b
	next := *b
	next.TimeSlot = "10:30 AM - 11:45 AM"
	var cerr *CapacityError
	err = r.Rebook(context.Background(), &prev, &next)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Available)

	// A slot with room accepts the move.
	next.TimeSlot = "12:00 PM - 1:15 PM"
	require.NoError(t, r.Rebook(context.Background(), &prev, &next))
	occ, err := store.SlotOccupancy(context.Background(), b.TourDate, b.Location, "12:00 PM - 1:15 PM")
	require.NoError(t, err)
	assert.Equal(t, 10, occ)
}

// TestRebookReserveRace pits a headcount increase against a fresh
// reservation for the same slot. The update's capacity check and its write
// hold the slot mutex together, so exactly one of the two can win; the
// loser gets a CapacityError and the slot never exceeds capacity.
func TestRebookReserveRace(t *testing.T) {
	store := &fakeStore{}
	r := NewReserver(store)

	first := validRequest()
	first.Participants = 20
	b, err := r.Reserve(context.Background(), first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var rebookErr, reserveErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		prev := *b
		next := *b
		next.Participants = 25
		rebookErr = r.Rebook(context.Background(), &prev, &next)
	}()
	go func() {
		defer wg.Done()
		late := validRequest()
		late.UserID = 2
		late.Participants = 5
		_, reserveErr = r.Reserve(context.Background(), late)
	}()
	wg.Wait()

	occ, err := store.SlotOccupancy(context.Background(), b.TourDate, b.Location, b.TimeSlot)
	require.NoError(t, err)
	assert.LessOrEqual(t, occ, SlotCapacity)
	assert.Equal(t, 25, occ)

	winners := 0
	for _, e := range []error{rebookErr, reserveErr} {
		if e == nil {
			winners++
			continue
		}
		var cerr *CapacityError
		require.ErrorAs(t, e, &cerr)
	}
	assert.Equal(t, 1, winners)
}

// staleStore reports an empty slot up front but rejects the insert with a
// concrete remaining count, the way the transactional re-check does when
// another instance fills the slot through a shared database.
type staleStore struct {
	fakeStore
}

func (s *staleStore) Insert(context.Context, *Request, int) (*model.Booking, error) {
	return nil, &CapacityError{Available: 3}
}

func TestReserveStoreRejectionKeepsRemainingCount(t *testing.T) {
	r := NewReserver(&staleStore{})
	req := validRequest()
	req.Participants = 5

	_, err := r.Reserve(context.Background(), req)
	var cerr *CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.Available)
}

func TestSessions(t *testing.T) {
	sums := map[string]int{
		"9:00 AM - 10:15 AM": 25,
		"12:00 PM - 1:15 PM": 30, // oversold legacy data must clamp to zero
	}
	sessions := Sessions(sums)
	require.Len(t, sessions, 4)

	assert.Equal(t, 0, sessions[0].AvailableSpots)
	assert.Equal(t, 25, sessions[1].AvailableSpots)
	assert.Equal(t, 0, sessions[2].AvailableSpots)
	assert.Equal(t, 30, sessions[2].CurrentParticipants)
	assert.Equal(t, 25, sessions[3].MaxParticipants)
}
