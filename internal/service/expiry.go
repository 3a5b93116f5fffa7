package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	internalclock "github.com/iliyamo/seat-inventory/internal/clock"
	"github.com/iliyamo/seat-inventory/internal/model"
)

// ReservationExpirer runs the deferred release check for one reservation.
// Implemented by ReservationService.ExpireReservation.
type ReservationExpirer interface {
	ExpireReservation(ctx context.Context, seatID uint64, reservedAt time.Time) error
}

// OverdueLister lists reservations whose deadline has passed, for the sweep.
type OverdueLister interface {
	ListOverdueReservations(ctx context.Context, cutoff time.Time) ([]model.ReservationRecord, error)
}

// ExpiryScheduler guarantees that a RESERVED seat not confirmed paid within
// the TTL returns to AVAILABLE without any external trigger.  Each
// successful reservation gets one in-memory timer tagged with the
// reservation timestamp it was scheduled for; the check on fire compares
// that timestamp against current state, so a stale timer can never release
// a newer reservation of the same seat.  Timers are not durable, so a
// periodic sweep over the database catches reservations whose timer was
// lost to a restart.
type ExpiryScheduler struct {
	expirer ReservationExpirer
	lister  OverdueLister
	clock   internalclock.Clock
	ttl     time.Duration
	sweep   time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[uint64]*time.Timer // keyed by seat id

	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewExpiryScheduler builds a scheduler.  sweepEvery controls the backup
// sweep interval; anything non-positive disables sweeping (tests).
func NewExpiryScheduler(expirer ReservationExpirer, lister OverdueLister,
	clk internalclock.Clock, ttl, sweepEvery time.Duration, logger *slog.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		expirer: expirer,
		lister:  lister,
		clock:   clk,
		ttl:     ttl,
		sweep:   sweepEvery,
		logger:  logger,
		timers:  make(map[uint64]*time.Timer),
		quit:    make(chan struct{}),
	}
}

// Schedule arms the deferred release check for a reservation.  A newer
// reservation of the same seat replaces any timer still pending for it; the
// replaced timer would have been a harmless no-op, this just stops it early.
func (s *ExpiryScheduler) Schedule(rec model.ReservationRecord) {
	delay := rec.Deadline.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return
	default:
	}
	if old, ok := s.timers[rec.SeatID]; ok {
		old.Stop()
	}
	s.timers[rec.SeatID] = time.AfterFunc(delay, func() { s.fire(rec) })
}

// Run starts the backup sweep and blocks until ctx is cancelled or Stop is
// called.
func (s *ExpiryScheduler) Run(ctx context.Context) {
	if s.sweep <= 0 {
		select {
		case <-ctx.Done():
		case <-s.quit:
		}
		return
	}
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

// Stop cancels all pending timers and waits for in-flight checks.
func (s *ExpiryScheduler) Stop() {
	s.once.Do(func() { close(s.quit) })
	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// fire runs one release check.  A transiently failing check is retried with
// exponential backoff and, if it still fails, re-armed as a fresh timer — a
// pending release is never dropped, since a dropped check would strand the
// seat until the next sweep.
func (s *ExpiryScheduler) fire(rec model.ReservationRecord) {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.Lock()
	delete(s.timers, rec.SeatID)
	s.mu.Unlock()

	backoff := time.Second
	for attempt := 0; attempt < 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.expirer.ExpireReservation(ctx, rec.SeatID, rec.ReservedAt)
		cancel()
		if err == nil {
			return
		}
		s.logger.Error("expiration check failed", "error", err,
			"seat_id", rec.SeatID, "attempt", attempt+1)
		select {
		case <-s.quit:
			return
		case <-time.After(backoff):
		}
		if backoff < 16*time.Second {
			backoff *= 2
		}
	}
	// Still failing; try again in a minute rather than giving up.
	s.logger.Error("expiration check exhausted retries, re-arming", "seat_id", rec.SeatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return
	default:
	}
	if _, ok := s.timers[rec.SeatID]; !ok {
		s.timers[rec.SeatID] = time.AfterFunc(time.Minute, func() { s.fire(rec) })
	}
}

// runSweep releases every reservation already past its deadline.  It backs
// up the in-memory timers: after a restart the timers are gone but the
// overdue rows are still found here.
func (s *ExpiryScheduler) runSweep(ctx context.Context) {
	cutoff := s.clock.Now().Add(-s.ttl)
	recs, err := s.lister.ListOverdueReservations(ctx, cutoff)
	if err != nil {
		s.logger.Error("expiry sweep query failed", "error", err)
		return
	}
	for _, rec := range recs {
		if err := s.expirer.ExpireReservation(ctx, rec.SeatID, rec.ReservedAt); err != nil {
			s.logger.Error("expiry sweep release failed", "error", err, "seat_id", rec.SeatID)
		}
	}
}
