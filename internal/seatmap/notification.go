package seatmap

import "github.com/iliyamo/seat-inventory/internal/model"

// NotificationKind names the three outbound seat-state notifications.
type NotificationKind string

const (
	SeatReserved NotificationKind = "seat.reserved"
	SeatReleased NotificationKind = "seat.released"
	SeatSold     NotificationKind = "seat.sold"
)

// Notification is a staged outbound message describing a committed seat
// transition.  Notifications are pure data: the aggregate stages them during
// an operation and the command handler dispatches them only after the change
// has been durably persisted, never before and never for a no-op.
type Notification struct {
	Kind     NotificationKind
	EventID  uint64
	SeatID   uint64
	HolderID *uint64
	State    model.SeatState
}
