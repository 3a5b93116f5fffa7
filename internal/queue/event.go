// Package queue defines the message payloads exchanged with the ticket
// service over the message broker, plus the publisher and consumer that
// carry them.  Delivery is at-least-once in both directions: outbound seat
// events carry a message id so consumers can de-duplicate, and the inbound
// cancellation handler is idempotent so duplicates and reordering are
// harmless.
package queue

// SeatEvent is published whenever a seat transition has been committed.
// Kind is one of "seat.reserved", "seat.released" or "seat.sold".  The
// ticket service and other consumers use these for their own consistency;
// this service never waits for an acknowledgement.
type SeatEvent struct {
	MessageID  string  `json:"message_id"`
	Kind       string  `json:"kind"`
	EventID    uint64  `json:"event_id"`
	SeatID     uint64  `json:"seat_id"`
	HolderID   *uint64 `json:"holder_id,omitempty"`
	State      string  `json:"state"`
	OccurredAt string  `json:"occurred_at"`
}

// TicketCancelledEvent is consumed when the ticket service cancels a ticket
// bound to a seat.  The seat engine applies it idempotently: a PAID seat is
// reverted, a RESERVED seat is released, an AVAILABLE seat is left alone.
type TicketCancelledEvent struct {
	SeatID   uint64 `json:"seat_id"`
	TicketID uint64 `json:"ticket_id"`
	EventID  uint64 `json:"event_id"`
}
