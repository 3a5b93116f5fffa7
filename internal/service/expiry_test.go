package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalclock "github.com/iliyamo/seat-inventory/internal/clock"
	"github.com/iliyamo/seat-inventory/internal/model"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []model.ReservationRecord
	fired chan model.ReservationRecord
}

func newFakeExpirer() *fakeExpirer {
	return &fakeExpirer{fired: make(chan model.ReservationRecord, 16)}
}

func (f *fakeExpirer) ExpireReservation(_ context.Context, seatID uint64, reservedAt time.Time) error {
	rec := model.ReservationRecord{SeatID: seatID, ReservedAt: reservedAt}
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	f.mu.Unlock()
	f.fired <- rec
	return nil
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLister struct {
	mu   sync.Mutex
	recs []model.ReservationRecord
}

func (f *fakeLister) ListOverdueReservations(_ context.Context, _ time.Time) ([]model.ReservationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.recs
	f.recs = nil
	return out, nil
}

func testScheduler(expirer ReservationExpirer, lister OverdueLister, sweep time.Duration) *ExpiryScheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := internalclock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewExpiryScheduler(expirer, lister, clk, 10*time.Minute, sweep, logger)
}

func TestSchedulerFiresAtDeadline(t *testing.T) {
	exp := newFakeExpirer()
	s := testScheduler(exp, &fakeLister{}, 0)
	defer s.Stop()

	reservedAt := time.Date(2026, 3, 1, 11, 50, 0, 0, time.UTC)
	s.Schedule(model.ReservationRecord{
		SeatID:     1,
		ReservedAt: reservedAt,
		Deadline:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), // due now
	})

	select {
	case rec := <-exp.fired:
		assert.Equal(t, uint64(1), rec.SeatID)
		assert.True(t, rec.ReservedAt.Equal(reservedAt))
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestSchedulerReplacesTimerForSameSeat(t *testing.T) {
	exp := newFakeExpirer()
	s := testScheduler(exp, &fakeLister{}, 0)
	defer s.Stop()

	first := time.Date(2026, 3, 1, 11, 50, 0, 0, time.UTC)
	second := time.Date(2026, 3, 1, 11, 55, 0, 0, time.UTC)

	// Both deadlines are in the future relative to the fixed clock, so the
	// first timer is still pending when the second replaces it.
	s.Schedule(model.ReservationRecord{SeatID: 1, ReservedAt: first,
		Deadline: time.Date(2026, 3, 1, 12, 0, 0, 50_000_000, time.UTC)})
	s.Schedule(model.ReservationRecord{SeatID: 1, ReservedAt: second,
		Deadline: time.Date(2026, 3, 1, 12, 0, 0, 50_000_000, time.UTC)})

	select {
	case rec := <-exp.fired:
		assert.True(t, rec.ReservedAt.Equal(second), "replaced timer must not fire")
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	// And nothing else arrives.
	select {
	case rec := <-exp.fired:
		t.Fatalf("unexpected second firing for %v", rec.ReservedAt)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, 1, exp.callCount())
}

func TestSchedulerStopCancelsPendingTimers(t *testing.T) {
	exp := newFakeExpirer()
	s := testScheduler(exp, &fakeLister{}, 0)

	s.Schedule(model.ReservationRecord{SeatID: 1,
		ReservedAt: time.Date(2026, 3, 1, 11, 50, 0, 0, time.UTC),
		Deadline:   time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)})
	s.Stop()

	select {
	case <-exp.fired:
		t.Fatal("timer fired after Stop")
	case <-time.After(200 * time.Millisecond):
	}

	// Scheduling after Stop is ignored.
	s.Schedule(model.ReservationRecord{SeatID: 2,
		Deadline: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)})
	select {
	case <-exp.fired:
		t.Fatal("timer armed after Stop")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSchedulerSweepCatchesOverdueRows(t *testing.T) {
	exp := newFakeExpirer()
	reservedAt := time.Date(2026, 3, 1, 11, 30, 0, 0, time.UTC)
	lister := &fakeLister{recs: []model.ReservationRecord{
		{SeatID: 5, ReservedAt: reservedAt},
	}}
	s := testScheduler(exp, lister, 20*time.Millisecond)
	defer s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case rec := <-exp.fired:
		require.Equal(t, uint64(5), rec.SeatID)
		assert.True(t, rec.ReservedAt.Equal(reservedAt))
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never released the overdue reservation")
	}
}
