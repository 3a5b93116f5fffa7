package model

import "time"

// ReservationRecord correlates an expiration timer with one specific
// reservation attempt.  The scheduler keeps the ReservedAt it observed when
// the reservation was taken; when the timer fires, the seat is released only
// if its current ReservedAt still matches.  A late timer for an old
// reservation therefore can never release a newer reservation of the same
// seat.
//
// Fields:
//  SeatID     – the reserved seat.
//  SeatMapID  – the owning seat map.
//  EventID    – the owning event.
//  HolderID   – buyer who took the reservation.
//  ReservedAt – timestamp identifying this reservation attempt.
//  Deadline   – when the reservation expires unless paid.
type ReservationRecord struct {
	SeatID     uint64
	SeatMapID  uint64
	EventID    uint64
	HolderID   uint64
	ReservedAt time.Time
	Deadline   time.Time
}
