package model

import "time"

// SeatMap is the aggregate root owning all categories and seats for one
// event's seating layout.  A seat map is created when an event's seating
// is initialized and is never deleted while the event is active.  All
// seat mutations go through the seatmap package; no other component may
// touch a Seat directly.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – the event this layout belongs to.
//  CreatedAt – when the layout was initialized.
type SeatMap struct {
	ID        uint64    // seat_maps.id
	EventID   uint64    // seat_maps.event_id
	CreatedAt time.Time // seat_maps.created_at
}
