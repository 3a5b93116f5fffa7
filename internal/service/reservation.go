// Package service contains the reservation command handlers and the
// expiration scheduler.  Every command follows the same shape: load the
// aggregate, invoke one operation, save through the optimistic-concurrency
// boundary, and only after the save succeeded dispatch notifications and
// timers.  A conflicting save is never blindly retried — the handler reloads
// fresh state so the operation's precondition is re-validated before the
// next attempt.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/seat-inventory/internal/metrics"
	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/notifier"
	"github.com/iliyamo/seat-inventory/internal/queue"
	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/seatmap"

	internalclock "github.com/iliyamo/seat-inventory/internal/clock"
)

// ErrReservationFailed is surfaced when a command keeps losing the
// optimistic-concurrency race beyond the bounded retry count.  Clients may
// simply try again against fresh state.
var ErrReservationFailed = errors.New("reservation failed, please retry")

// maxSaveAttempts bounds how often a command reloads and retries after a
// version conflict before giving up.
const maxSaveAttempts = 3

// SeatMapStore is the persistence boundary the command handlers need: load
// an aggregate, save one mutated seat with conflict detection, and list
// overdue reservations for the expiry sweep.
type SeatMapStore interface {
	GetMapByEvent(ctx context.Context, eventID uint64) (*seatmap.Map, error)
	GetMapBySeat(ctx context.Context, seatID uint64) (*seatmap.Map, error)
	UpdateSeat(ctx context.Context, s *model.Seat) error
	ListOverdueReservations(ctx context.Context, cutoff time.Time) ([]model.ReservationRecord, error)
}

// EventPublisher publishes outbound seat events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SeatEvent) error
}

// ReservationTimers schedules the deferred release check for a reservation.
type ReservationTimers interface {
	Schedule(rec model.ReservationRecord)
}

// ReservationService orchestrates the reserve, release, confirm-paid and
// cancellation use cases against the seat map aggregate.
type ReservationService struct {
	store    SeatMapStore
	notifier notifier.Notifier
	events   EventPublisher
	timers   ReservationTimers
	clock    internalclock.Clock
	ttl      time.Duration
	logger   *slog.Logger
}

// NewReservationService wires a ReservationService.  The expiry scheduler is
// attached afterwards via SetTimers because it needs the service to exist
// first.
func NewReservationService(store SeatMapStore, n notifier.Notifier, events EventPublisher,
	clk internalclock.Clock, ttl time.Duration, logger *slog.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		notifier: n,
		events:   events,
		clock:    clk,
		ttl:      ttl,
		logger:   logger,
	}
}

// SetTimers attaches the expiration scheduler used after successful
// reservations.
func (s *ReservationService) SetTimers(t ReservationTimers) { s.timers = t }

// TTL returns the configured reservation time-to-live.
func (s *ReservationService) TTL() time.Duration { return s.ttl }

// Reserve places a reservation for holderID on seatID and schedules its
// expiration check.  Domain rejections (unknown seat, seat taken, duplicate
// request by the same holder) are returned as seatmap errors; losing the
// save race beyond the retry budget yields ErrReservationFailed.
func (s *ReservationService) Reserve(ctx context.Context, seatID, holderID uint64) (*model.ReservationRecord, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		m, err := s.loadBySeat(ctx, seatID)
		if err != nil {
			return nil, err
		}
		if err := m.Reserve(seatID, holderID, s.clock.Now()); err != nil {
			metrics.Operations.WithLabelValues("reserve", "rejected").Inc()
			return nil, err
		}
		seat := m.Seat(seatID)
		if err := s.store.UpdateSeat(ctx, seat); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				metrics.ConcurrencyConflicts.Inc()
				continue
			}
			return nil, err
		}
		rec := model.ReservationRecord{
			SeatID:     seat.ID,
			SeatMapID:  seat.SeatMapID,
			EventID:    m.Info.EventID,
			HolderID:   holderID,
			ReservedAt: *seat.ReservedAt,
			Deadline:   seat.ReservedAt.Add(s.ttl),
		}
		s.afterCommit(ctx, m)
		if s.timers != nil {
			s.timers.Schedule(rec)
		}
		metrics.Operations.WithLabelValues("reserve", "success").Inc()
		return &rec, nil
	}
	metrics.Operations.WithLabelValues("reserve", "failed").Inc()
	return nil, ErrReservationFailed
}

// Release returns a reserved seat to the pool.  It is idempotent: releasing
// an already-available seat, or a paid one, changes nothing, returns no
// error and emits no notification.  The bool reports whether a change was
// made.
func (s *ReservationService) Release(ctx context.Context, seatID uint64) (bool, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		m, err := s.loadBySeat(ctx, seatID)
		if err != nil {
			return false, err
		}
		openFor := s.openDuration(m.Seat(seatID))
		changed, err := m.Release(seatID)
		if err != nil {
			return false, err
		}
		if !changed {
			metrics.Operations.WithLabelValues("release", "noop").Inc()
			return false, nil
		}
		if err := s.store.UpdateSeat(ctx, m.Seat(seatID)); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				metrics.ConcurrencyConflicts.Inc()
				continue
			}
			return false, err
		}
		s.afterCommit(ctx, m)
		metrics.Operations.WithLabelValues("release", "success").Inc()
		metrics.ReservationOutcome.WithLabelValues("released").Observe(openFor.Seconds())
		return true, nil
	}
	metrics.Operations.WithLabelValues("release", "failed").Inc()
	return false, ErrReservationFailed
}

// MarkPaid confirms that ticket issuance committed the buyer to the seat.
// Valid only while the seat is RESERVED; afterwards the expiration check for
// the reservation becomes a no-op.
func (s *ReservationService) MarkPaid(ctx context.Context, seatID uint64) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		m, err := s.loadBySeat(ctx, seatID)
		if err != nil {
			return err
		}
		openFor := s.openDuration(m.Seat(seatID))
		if err := m.MarkPaid(seatID); err != nil {
			metrics.Operations.WithLabelValues("mark_paid", "rejected").Inc()
			return err
		}
		if err := s.store.UpdateSeat(ctx, m.Seat(seatID)); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				metrics.ConcurrencyConflicts.Inc()
				continue
			}
			return err
		}
		s.afterCommit(ctx, m)
		metrics.Operations.WithLabelValues("mark_paid", "success").Inc()
		metrics.ReservationOutcome.WithLabelValues("paid").Observe(openFor.Seconds())
		return nil
	}
	metrics.Operations.WithLabelValues("mark_paid", "failed").Inc()
	return ErrReservationFailed
}

// RevertPaid compensates a payment that was cancelled after issuance: the
// seat returns from PAID to AVAILABLE and may be reserved by a new buyer.
func (s *ReservationService) RevertPaid(ctx context.Context, seatID uint64) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		m, err := s.loadBySeat(ctx, seatID)
		if err != nil {
			return err
		}
		if err := m.RevertPaid(seatID); err != nil {
			metrics.Operations.WithLabelValues("revert_paid", "rejected").Inc()
			return err
		}
		if err := s.store.UpdateSeat(ctx, m.Seat(seatID)); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				metrics.ConcurrencyConflicts.Inc()
				continue
			}
			return err
		}
		s.afterCommit(ctx, m)
		metrics.Operations.WithLabelValues("revert_paid", "success").Inc()
		return nil
	}
	metrics.Operations.WithLabelValues("revert_paid", "failed").Inc()
	return ErrReservationFailed
}

// ExpireReservation is the deferred release check fired by the scheduler.
// The seat is released only when it is still RESERVED and its reservation
// timestamp matches the one the timer was scheduled for; a timer for an old
// reservation of a since-re-reserved seat is a no-op.  Only infrastructure
// failures return an error, which the scheduler retries with backoff.
func (s *ReservationService) ExpireReservation(ctx context.Context, seatID uint64, reservedAt time.Time) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		m, err := s.store.GetMapBySeat(ctx, seatID)
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		seat := m.Seat(seatID)
		if seat == nil || seat.State != model.SeatReserved ||
			seat.ReservedAt == nil || !seat.ReservedAt.Equal(reservedAt) {
			metrics.Operations.WithLabelValues("expire", "noop").Inc()
			return nil
		}
		if _, err := m.Release(seatID); err != nil {
			return err
		}
		if err := s.store.UpdateSeat(ctx, seat); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				metrics.ConcurrencyConflicts.Inc()
				continue
			}
			return err
		}
		s.afterCommit(ctx, m)
		metrics.Operations.WithLabelValues("expire", "success").Inc()
		metrics.Expirations.Inc()
		metrics.ReservationOutcome.WithLabelValues("expired").Observe(s.ttl.Seconds())
		return nil
	}
	return ErrReservationFailed
}

// HandleTicketCancelled applies a ticket cancellation from the ticket
// service.  Deliveries are at least once and may be reordered, so the
// handler is idempotent: a PAID seat is reverted, a RESERVED seat released,
// anything else left untouched.  Only infrastructure failures return an
// error, which makes the consumer requeue the delivery.
func (s *ReservationService) HandleTicketCancelled(ctx context.Context, ev queue.TicketCancelledEvent) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		m, err := s.store.GetMapBySeat(ctx, ev.SeatID)
		if errors.Is(err, repository.ErrSeatNotFound) {
			s.logger.Warn("ticket cancellation for unknown seat",
				"seat_id", ev.SeatID, "ticket_id", ev.TicketID)
			return nil
		}
		if err != nil {
			return err
		}
		seat := m.Seat(ev.SeatID)
		switch seat.State {
		case model.SeatPaid:
			if err := m.RevertPaid(ev.SeatID); err != nil {
				return err
			}
		case model.SeatReserved:
			if _, err := m.Release(ev.SeatID); err != nil {
				return err
			}
		default:
			// Duplicate or late delivery for an already-free seat.
			metrics.Operations.WithLabelValues("ticket_cancelled", "noop").Inc()
			return nil
		}
		if err := s.store.UpdateSeat(ctx, seat); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				metrics.ConcurrencyConflicts.Inc()
				continue
			}
			return err
		}
		s.afterCommit(ctx, m)
		metrics.Operations.WithLabelValues("ticket_cancelled", "success").Inc()
		return nil
	}
	return ErrReservationFailed
}

// EventSeats loads the aggregate for an event, for the seat-map view.
func (s *ReservationService) EventSeats(ctx context.Context, eventID uint64) (*seatmap.Map, error) {
	return s.store.GetMapByEvent(ctx, eventID)
}

// loadBySeat loads the aggregate owning seatID, translating the repository
// miss into the domain's seat-not-found error.
func (s *ReservationService) loadBySeat(ctx context.Context, seatID uint64) (*seatmap.Map, error) {
	m, err := s.store.GetMapBySeat(ctx, seatID)
	if errors.Is(err, repository.ErrSeatNotFound) {
		return nil, seatmap.ErrSeatNotFound
	}
	return m, err
}

// openDuration reports how long the seat's current reservation has been
// open; zero when the seat carries no reservation timestamp.
func (s *ReservationService) openDuration(seat *model.Seat) time.Duration {
	if seat == nil || seat.ReservedAt == nil {
		return 0
	}
	return s.clock.Now().Sub(*seat.ReservedAt)
}

// afterCommit dispatches the notifications staged by the committed
// operation: the real-time channel first, then the broker event.  Both are
// fire-and-forget; a publish failure never unwinds a committed transition.
func (s *ReservationService) afterCommit(ctx context.Context, m *seatmap.Map) {
	for _, n := range m.Notifications() {
		s.notifier.Notify(ctx, notifier.SeatUpdate{
			EventID:  n.EventID,
			SeatID:   n.SeatID,
			State:    n.State,
			HolderID: n.HolderID,
		})
		_ = s.events.Publish(ctx, queue.SeatEvent{
			MessageID:  uuid.NewString(),
			Kind:       string(n.Kind),
			EventID:    n.EventID,
			SeatID:     n.SeatID,
			HolderID:   n.HolderID,
			State:      string(n.State),
			OccurredAt: s.clock.Now().Format(time.RFC3339Nano),
		})
	}
	m.ClearNotifications()
}
