// Package booking owns the capacity rules for VR tour sessions: the fixed
// slot table, cost derivation and the serialized check-and-reserve path
// that keeps a slot from being oversold under concurrent requests.
package booking

// SlotCapacity is the maximum aggregate participants permitted per
// (date, location, slot) across non-cancelled, non-donor bookings.
const SlotCapacity = 25

// SeatPriceUSD is charged per participant and per donation ticket.
const SeatPriceUSD = 40

// MaxParticipants bounds a single non-donor booking. Donor bookings are
// exempt from slot capacity and are bounded only by input-range checks.
const MaxParticipants = 100

// TimeSlots lists the four fixed 75-minute session windows offered at every
// location, in display order. The labels double as the stored time_slot
// values, so they must never be reformatted.
var TimeSlots = []string{
	"9:00 AM - 10:15 AM",
	"10:30 AM - 11:45 AM",
	"12:00 PM - 1:15 PM",
	"1:30 PM - 2:45 PM",
}

// ValidSlot reports whether label is one of the fixed time slots.
func ValidSlot(label string) bool {
	for _, s := range TimeSlots {
		if s == label {
			return true
		}
	}
	return false
}

// TotalCost derives the charge for a booking in whole dollars. The client
// may send its own total but it is ignored; this derivation is the single
// source of truth.
func TotalCost(participants, donationTickets int) int {
	return SeatPriceUSD*participants + SeatPriceUSD*donationTickets
}

// SlotAvailability is one row of the availability listing returned for a
// (date, location) pair.
type SlotAvailability struct {
	TimeSlot            string `json:"timeSlot"`
	CurrentParticipants int    `json:"currentParticipants"`
	MaxParticipants     int    `json:"maxParticipants"`
	AvailableSpots      int    `json:"availableSpots"`
}

// Sessions expands per-slot occupancy sums into the full four-slot listing.
// Slots with no bookings yet appear with zero occupancy. Occupancy sums
// must already exclude cancelled and donor bookings; donor seats never
// consume capacity anywhere in the system.
func Sessions(sums map[string]int) []SlotAvailability {
	out := make([]SlotAvailability, 0, len(TimeSlots))
	for _, slot := range TimeSlots {
		occ := sums[slot]
		free := SlotCapacity - occ
		if free < 0 {
			free = 0
		}
		out = append(out, SlotAvailability{
			TimeSlot:            slot,
			CurrentParticipants: occ,
			MaxParticipants:     SlotCapacity,
			AvailableSpots:      free,
		})
	}
	return out
}
