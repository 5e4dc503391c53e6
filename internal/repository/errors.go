// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrAlreadyCancelled signals that a cancel request arrived
// for a booking that is already in its terminal state. Capacity misses
// are not a sentinel: the locked re-checks return *booking.CapacityError
// carrying the remaining seat count.
package repository

import "errors"

// ErrEmailExists is returned when a signup collides with an existing
// account. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyCancelled is returned when a booking is cancelled a second
// time. The first cancel wins; repeats are rejected rather than silently
// succeeding. Handlers translate this into an HTTP 409 response.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrNotPending is returned when a status transition requires a pending
// booking (payment capture, confirmation) but the booking has already
// moved on. Handlers translate this into an HTTP 409 response.
var ErrNotPending = errors.New("booking is not pending")
