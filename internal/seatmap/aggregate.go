package seatmap

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// Map is one event's seat map loaded into memory: the owning event, the
// registered categories and every seat with its current state.  A Map is
// loaded per operation and never shared between requests; concurrency safety
// comes from the per-seat version token checked at save time, not from
// in-process locks.
type Map struct {
	Info       model.SeatMap
	Categories []model.Category
	Seats      []*model.Seat

	staged []Notification
}

// New builds an empty aggregate for the given seat map row.
func New(info model.SeatMap) *Map {
	return &Map{Info: info}
}

// Load assembles an aggregate from persisted rows.  Staged notifications are
// always empty after a load.
func Load(info model.SeatMap, categories []model.Category, seats []*model.Seat) *Map {
	return &Map{Info: info, Categories: categories, Seats: seats}
}

// Seat returns the seat with the given id, or nil when it is not part of
// this map.
func (m *Map) Seat(seatID uint64) *model.Seat {
	for _, s := range m.Seats {
		if s.ID == seatID {
			return s
		}
	}
	return nil
}

// Category returns the category with the given name using case-insensitive
// comparison, or nil when no such category is registered.
func (m *Map) Category(name string) *model.Category {
	for i := range m.Categories {
		if strings.EqualFold(m.Categories[i].Name, name) {
			return &m.Categories[i]
		}
	}
	return nil
}

// AddCategory registers a new category.  The returned category carries a
// zero ID until it is persisted.  Fails with ErrDuplicateCategory when the
// name is already taken (case-insensitive).
func (m *Map) AddCategory(name string, basePrice decimal.Decimal, priority bool) (*model.Category, error) {
	if m.Category(name) != nil {
		return nil, ErrDuplicateCategory
	}
	m.Categories = append(m.Categories, model.Category{
		SeatMapID: m.Info.ID,
		Name:      name,
		BasePrice: basePrice,
		Priority:  priority,
	})
	return &m.Categories[len(m.Categories)-1], nil
}

// AddSeat registers a new seat in the given category.  The seat starts
// AVAILABLE and carries a zero ID until persisted.  Fails with
// ErrUnknownCategory when the category name is not registered and with
// ErrDuplicateSeat when (row, number) already exists in the map.
func (m *Map) AddSeat(row string, number uint32, categoryName string) (*model.Seat, error) {
	cat := m.Category(categoryName)
	if cat == nil {
		return nil, ErrUnknownCategory
	}
	for _, s := range m.Seats {
		if s.Row == row && s.Number == number {
			return nil, ErrDuplicateSeat
		}
	}
	seat := &model.Seat{
		SeatMapID:  m.Info.ID,
		CategoryID: cat.ID,
		Row:        row,
		Number:     number,
		State:      model.SeatAvailable,
	}
	m.Seats = append(m.Seats, seat)
	return seat, nil
}

// Reserve transitions a seat from AVAILABLE to RESERVED for the given
// holder, recording the reservation timestamp and staging a SeatReserved
// notification.  A holder re-requesting a seat they already hold gets
// ErrAlreadyHeld so callers never schedule a second expiration timer for the
// same seat/holder pair; any other occupied state yields ErrSeatNotAvailable.
func (m *Map) Reserve(seatID, holderID uint64, now time.Time) error {
	seat := m.Seat(seatID)
	if seat == nil {
		return ErrSeatNotFound
	}
	if seat.State == model.SeatReserved && seat.HolderID != nil && *seat.HolderID == holderID {
		return ErrAlreadyHeld
	}
	if seat.State != model.SeatAvailable {
		return ErrSeatNotAvailable
	}
	// Truncated to microseconds so the value survives a round-trip through
	// DATETIME(6) intact; the expiry check compares it for equality.
	at := now.UTC().Truncate(time.Microsecond)
	seat.State = model.SeatReserved
	seat.HolderID = &holderID
	seat.ReservedAt = &at
	m.stage(SeatReserved, seat)
	return nil
}

// Release returns a RESERVED seat to AVAILABLE, clearing holder and
// timestamp and staging a SeatReleased notification.  Release is idempotent:
// an AVAILABLE seat is a no-op, and a PAID seat is a no-op as well because
// payment wins over late release attempts.  The returned bool reports
// whether anything changed; callers must not notify on a no-op.
func (m *Map) Release(seatID uint64) (bool, error) {
	seat := m.Seat(seatID)
	if seat == nil {
		return false, ErrSeatNotFound
	}
	if seat.State != model.SeatReserved {
		return false, nil
	}
	seat.State = model.SeatAvailable
	seat.HolderID = nil
	seat.ReservedAt = nil
	m.stage(SeatReleased, seat)
	return true, nil
}

// MarkPaid transitions a seat from RESERVED to PAID and stages a SeatSold
// notification.  The holder is kept; the reservation no longer expires.
func (m *Map) MarkPaid(seatID uint64) error {
	seat := m.Seat(seatID)
	if seat == nil {
		return ErrSeatNotFound
	}
	if seat.State != model.SeatReserved {
		return ErrSeatNotReserved
	}
	seat.State = model.SeatPaid
	m.stage(SeatSold, seat)
	return nil
}

// RevertPaid is the compensating transition for a ticket cancellation that
// reaches the seat engine after payment was confirmed: the seat goes from
// PAID back to AVAILABLE and a SeatReleased notification is staged.
func (m *Map) RevertPaid(seatID uint64) error {
	seat := m.Seat(seatID)
	if seat == nil {
		return ErrSeatNotFound
	}
	if seat.State != model.SeatPaid {
		return ErrSeatNotPaid
	}
	seat.State = model.SeatAvailable
	seat.HolderID = nil
	seat.ReservedAt = nil
	m.stage(SeatReleased, seat)
	return nil
}

// Notifications returns the notifications staged by operations since the
// aggregate was loaded.  The caller dispatches them after a successful save
// and then calls ClearNotifications.
func (m *Map) Notifications() []Notification {
	return m.staged
}

// ClearNotifications drops all staged notifications.
func (m *Map) ClearNotifications() {
	m.staged = nil
}

func (m *Map) stage(kind NotificationKind, seat *model.Seat) {
	var holder *uint64
	if seat.HolderID != nil {
		h := *seat.HolderID
		holder = &h
	}
	m.staged = append(m.staged, Notification{
		Kind:     kind,
		EventID:  m.Info.EventID,
		SeatID:   seat.ID,
		HolderID: holder,
		State:    seat.State,
	})
}
