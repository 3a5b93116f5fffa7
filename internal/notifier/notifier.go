// Package notifier pushes committed seat-state changes to every client
// watching an event.  Delivery is fire-and-forget: the command handlers call
// Notify only after a transition has been durably persisted, never before
// and never for a no-op, and a failed push is logged rather than surfaced.
package notifier

import (
	"context"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// SeatUpdate is one broadcast seat-state change.
type SeatUpdate struct {
	EventID  uint64          `json:"event_id"`
	SeatID   uint64          `json:"seat_id"`
	State    model.SeatState `json:"state"`
	HolderID *uint64         `json:"holder_id,omitempty"`
}

// Notifier broadcasts a seat update to all observers subscribed to the
// update's event.
type Notifier interface {
	Notify(ctx context.Context, update SeatUpdate)
}

// Noop discards all updates.  Useful when real-time delivery is not
// configured.
type Noop struct{}

// Notify discards the update.
func (Noop) Notify(context.Context, SeatUpdate) {}
