package utils

import (
	"fmt"
	"strings"
	"time"
)

// SlotStart computes the UTC start time of a session from its stored date
// (YYYY-MM-DD) and a slot label such as "9:00 AM - 10:15 AM". The label's
// start half is an hour/minute/AM-PM triplet; the end half is ignored.
func SlotStart(date, slot string) (time.Time, error) {
	start, _, ok := strings.Cut(slot, "-")
	if !ok {
		return time.Time{}, fmt.Errorf("malformed time slot %q", slot)
	}
	t, err := time.Parse("2006-01-02 3:04 PM", date+" "+strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot start: %w", err)
	}
	return t.UTC(), nil
}

// CancellableAt reports whether a booking for the given date and slot may
// still be cancelled at the instant now: cancellation closes once the slot
// start time has been reached.
func CancellableAt(date, slot string, now time.Time) (bool, error) {
	start, err := SlotStart(date, slot)
	if err != nil {
		return false, err
	}
	return now.UTC().Before(start), nil
}
