package model

import "time"

// SeatState is the lifecycle state of a seat.  A seat is created AVAILABLE,
// moves to RESERVED only from AVAILABLE, to PAID only from RESERVED, and
// back to AVAILABLE either from RESERVED (release/expiry) or from PAID
// (ticket cancellation compensation).
type SeatState string

const (
	SeatAvailable SeatState = "AVAILABLE"
	SeatReserved  SeatState = "RESERVED"
	SeatPaid      SeatState = "PAID"
)

// Seat is a single sellable seat within a seat map.  (Row, Number) is unique
// within a map.  HolderID and ReservedAt are set only while the seat is
// RESERVED or PAID.  Version is the optimistic concurrency token: every
// persisted state change bumps it, and a save against a stale version is
// rejected by the repository.
//
// Fields:
//  ID         – primary key identifier.
//  SeatMapID  – the seat map owning this seat.
//  CategoryID – the category this seat belongs to; must exist in the map.
//  Row        – row label, e.g. "A".
//  Number     – seat number within the row.
//  State      – one of AVAILABLE, RESERVED, PAID.
//  HolderID   – buyer currently holding the seat (nil when AVAILABLE).
//  ReservedAt – when the current reservation was taken (nil when AVAILABLE).
//  Version    – optimistic locking token.
type Seat struct {
	ID         uint64     // seats.id
	SeatMapID  uint64     // seats.seat_map_id
	CategoryID uint64     // seats.category_id
	Row        string     // seats.row_label
	Number     uint32     // seats.number
	State      SeatState  // seats.state
	HolderID   *uint64    // seats.holder_id (nullable)
	ReservedAt *time.Time // seats.reserved_at (nullable)
	Version    uint64     // seats.version
}
