package seatmap

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/model"
)

func testMap(t *testing.T) *Map {
	t.Helper()
	m := New(model.SeatMap{ID: 1, EventID: 42})
	_, err := m.AddCategory("VIP", decimal.NewFromInt(150), true)
	require.NoError(t, err)
	_, err = m.AddCategory("Standard", decimal.NewFromInt(60), false)
	require.NoError(t, err)
	for n := uint32(1); n <= 3; n++ {
		_, err = m.AddSeat("A", n, "VIP")
		require.NoError(t, err)
	}
	for i, s := range m.Seats {
		s.ID = uint64(i + 1)
	}
	return m
}

func TestAddCategoryDuplicateName(t *testing.T) {
	m := testMap(t)

	_, err := m.AddCategory("vip", decimal.NewFromInt(10), false)
	assert.ErrorIs(t, err, ErrDuplicateCategory)
}

func TestAddSeatValidation(t *testing.T) {
	m := testMap(t)

	_, err := m.AddSeat("B", 1, "Balcony")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = m.AddSeat("A", 1, "Standard")
	assert.ErrorIs(t, err, ErrDuplicateSeat)

	seat, err := m.AddSeat("B", 1, "standard")
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, seat.State)
	assert.Nil(t, seat.HolderID)
}

func TestReserve(t *testing.T) {
	m := testMap(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	err := m.Reserve(1, 7, now)
	require.NoError(t, err)

	seat := m.Seat(1)
	assert.Equal(t, model.SeatReserved, seat.State)
	require.NotNil(t, seat.HolderID)
	assert.Equal(t, uint64(7), *seat.HolderID)
	require.NotNil(t, seat.ReservedAt)
	assert.True(t, seat.ReservedAt.Equal(now.Truncate(time.Microsecond)))

	notes := m.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, SeatReserved, notes[0].Kind)
	assert.Equal(t, uint64(42), notes[0].EventID)
	assert.Equal(t, uint64(1), notes[0].SeatID)
}

func TestReserveTakenSeat(t *testing.T) {
	m := testMap(t)
	now := time.Now()
	require.NoError(t, m.Reserve(1, 7, now))

	// Same holder again: distinct error so no second timer is scheduled.
	assert.ErrorIs(t, m.Reserve(1, 7, now), ErrAlreadyHeld)
	// Different holder: plain not-available.
	assert.ErrorIs(t, m.Reserve(1, 8, now), ErrSeatNotAvailable)
	// Unknown seat.
	assert.ErrorIs(t, m.Reserve(99, 7, now), ErrSeatNotFound)

	// The failed attempts staged nothing.
	assert.Len(t, m.Notifications(), 1)
}

func TestReleaseIdempotent(t *testing.T) {
	m := testMap(t)
	require.NoError(t, m.Reserve(1, 7, time.Now()))
	m.ClearNotifications()

	changed, err := m.Release(1)
	require.NoError(t, err)
	assert.True(t, changed)

	seat := m.Seat(1)
	assert.Equal(t, model.SeatAvailable, seat.State)
	assert.Nil(t, seat.HolderID)
	assert.Nil(t, seat.ReservedAt)

	notes := m.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, SeatReleased, notes[0].Kind)
	m.ClearNotifications()

	// Second release: no change, no error, no notification.
	changed, err = m.Release(1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, m.Notifications())
}

func TestReleasePaidSeatIsNoop(t *testing.T) {
	m := testMap(t)
	require.NoError(t, m.Reserve(1, 7, time.Now()))
	require.NoError(t, m.MarkPaid(1))
	m.ClearNotifications()

	changed, err := m.Release(1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.SeatPaid, m.Seat(1).State)
	assert.Empty(t, m.Notifications())
}

func TestMarkPaid(t *testing.T) {
	m := testMap(t)

	assert.ErrorIs(t, m.MarkPaid(1), ErrSeatNotReserved)

	require.NoError(t, m.Reserve(1, 7, time.Now()))
	m.ClearNotifications()
	require.NoError(t, m.MarkPaid(1))

	seat := m.Seat(1)
	assert.Equal(t, model.SeatPaid, seat.State)
	require.NotNil(t, seat.HolderID)
	assert.Equal(t, uint64(7), *seat.HolderID)

	notes := m.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, SeatSold, notes[0].Kind)

	// Paying twice is rejected.
	assert.ErrorIs(t, m.MarkPaid(1), ErrSeatNotReserved)
}

func TestRevertPaid(t *testing.T) {
	m := testMap(t)

	assert.ErrorIs(t, m.RevertPaid(1), ErrSeatNotPaid)

	require.NoError(t, m.Reserve(1, 7, time.Now()))
	require.NoError(t, m.MarkPaid(1))
	m.ClearNotifications()

	require.NoError(t, m.RevertPaid(1))
	seat := m.Seat(1)
	assert.Equal(t, model.SeatAvailable, seat.State)
	assert.Nil(t, seat.HolderID)
	assert.Nil(t, seat.ReservedAt)

	notes := m.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, SeatReleased, notes[0].Kind)

	// Freed seat is reservable by somebody else.
	require.NoError(t, m.Reserve(1, 8, time.Now()))
}

func TestNotificationsAccumulateAcrossOperations(t *testing.T) {
	m := testMap(t)
	require.NoError(t, m.Reserve(1, 7, time.Now()))
	require.NoError(t, m.Reserve(2, 8, time.Now()))
	require.NoError(t, m.MarkPaid(1))

	notes := m.Notifications()
	require.Len(t, notes, 3)
	assert.Equal(t, SeatReserved, notes[0].Kind)
	assert.Equal(t, SeatReserved, notes[1].Kind)
	assert.Equal(t, SeatSold, notes[2].Kind)

	m.ClearNotifications()
	assert.Empty(t, m.Notifications())
}

func TestLoadStartsClean(t *testing.T) {
	info := model.SeatMap{ID: 3, EventID: 9}
	seats := []*model.Seat{{ID: 1, SeatMapID: 3, Row: "A", Number: 1, State: model.SeatReserved}}
	m := Load(info, nil, seats)
	assert.Empty(t, m.Notifications())
	assert.Same(t, seats[0], m.Seat(1))
	assert.Nil(t, m.Seat(2))
}
