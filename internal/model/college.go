package model

// College is one entry of the college directory shown during the booking
// flow. The directory is an external dataset consumed by this service; it
// is served from a static in-process catalog and is not persisted, so
// there is no table backing this type.
//
// Fields:
//  ID       – stable identifier referenced by bookings.college_id.
//  Name     – institution name.
//  City     – campus city.
//  State    – two-letter state code.
//  TourMins – length of the pre-recorded VR tour in minutes.
type College struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	State    string `json:"state"`
	TourMins int    `json:"tourMinutes"`
}
