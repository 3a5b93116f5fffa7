// Package seatmap implements the seat map aggregate: the in-memory model of
// one event's seating and every state transition a seat may go through.  All
// operations are pure: they mutate the loaded aggregate and stage outbound
// notifications, but perform no I/O.  Persistence and side effects are the
// caller's job, which keeps every transition atomic: either the full change
// plus its staged notification applies, or nothing does.
package seatmap

import "errors"

// Domain validation errors.  These are returned to the immediate caller and
// are never retried automatically.  Handlers translate them to HTTP statuses;
// the message consumer treats them as terminal for a delivery.
var (
	// ErrDuplicateCategory is returned when a category name already exists
	// in the map (comparison is case-insensitive).
	ErrDuplicateCategory = errors.New("category name already exists")

	// ErrUnknownCategory is returned when a seat references a category
	// that is not registered in the map.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrDuplicateSeat is returned when (row, number) already exists in
	// the map.
	ErrDuplicateSeat = errors.New("seat already exists")

	// ErrSeatNotFound is returned when the seat id is not part of the map.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrSeatNotAvailable is returned when reserving a seat that is not
	// currently AVAILABLE.
	ErrSeatNotAvailable = errors.New("seat not available")

	// ErrAlreadyHeld is returned when a holder re-reserves a seat they
	// already hold.  Kept distinct from ErrSeatNotAvailable so callers can
	// avoid scheduling a duplicate expiration timer for the same pair.
	ErrAlreadyHeld = errors.New("seat already held by this holder")

	// ErrSeatNotReserved is returned when marking paid a seat that is not
	// currently RESERVED.
	ErrSeatNotReserved = errors.New("seat not reserved")

	// ErrSeatNotPaid is returned when reverting payment on a seat that is
	// not currently PAID.
	ErrSeatNotPaid = errors.New("seat not paid")
)
