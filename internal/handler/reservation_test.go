package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalclock "github.com/iliyamo/seat-inventory/internal/clock"
	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/notifier"
	"github.com/iliyamo/seat-inventory/internal/queue"
	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/seatmap"
	"github.com/iliyamo/seat-inventory/internal/service"
)

// memStore is a minimal in-memory service.SeatMapStore for handler tests.
type memStore struct {
	info  model.SeatMap
	seats map[uint64]model.Seat
}

func newMemStore() *memStore {
	return &memStore{
		info: model.SeatMap{ID: 1, EventID: 42},
		seats: map[uint64]model.Seat{
			1: {ID: 1, SeatMapID: 1, Row: "A", Number: 1, State: model.SeatAvailable},
		},
	}
}

func (m *memStore) load() *seatmap.Map {
	seats := make([]*model.Seat, 0, len(m.seats))
	for _, s := range m.seats {
		cp := s
		seats = append(seats, &cp)
	}
	return seatmap.Load(m.info, nil, seats)
}

func (m *memStore) GetMapByEvent(_ context.Context, eventID uint64) (*seatmap.Map, error) {
	if eventID != m.info.EventID {
		return nil, repository.ErrSeatMapNotFound
	}
	return m.load(), nil
}

func (m *memStore) GetMapBySeat(_ context.Context, seatID uint64) (*seatmap.Map, error) {
	if _, ok := m.seats[seatID]; !ok {
		return nil, repository.ErrSeatNotFound
	}
	return m.load(), nil
}

func (m *memStore) UpdateSeat(_ context.Context, s *model.Seat) error {
	s.Version++
	m.seats[s.ID] = *s
	return nil
}

func (m *memStore) ListOverdueReservations(context.Context, time.Time) ([]model.ReservationRecord, error) {
	return nil, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.SeatEvent) error { return nil }

func newTestHandler(t *testing.T) (*ReservationHandler, *memStore) {
	t.Helper()
	store := newMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewReservationService(store, notifier.Noop{}, nopPublisher{},
		internalclock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		10*time.Minute, logger)
	return NewReservationHandler(svc), store
}

func doRequest(h echo.HandlerFunc, method, path, seatID string, holderID any) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(seatID)
	if holderID != nil {
		c.Set("user_id", holderID)
	}
	_ = h(c)
	return rec
}

func TestReserveEndpoint(t *testing.T) {
	h, store := newTestHandler(t)

	rec := doRequest(h.Reserve, http.MethodPost, "/v1/seats/1/reserve", "1", float64(7))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expires_at":"2026-03-01T12:10:00Z"`)
	assert.Equal(t, model.SeatReserved, store.seats[1].State)
}

func TestReserveEndpointConflicts(t *testing.T) {
	h, _ := newTestHandler(t)

	require.Equal(t, http.StatusCreated,
		doRequest(h.Reserve, http.MethodPost, "/v1/seats/1/reserve", "1", float64(7)).Code)

	// Repeat by the same holder and a grab by a different one both 409,
	// with different bodies.
	again := doRequest(h.Reserve, http.MethodPost, "/v1/seats/1/reserve", "1", float64(7))
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Contains(t, again.Body.String(), "already held")

	other := doRequest(h.Reserve, http.MethodPost, "/v1/seats/1/reserve", "1", float64(8))
	assert.Equal(t, http.StatusConflict, other.Code)
	assert.Contains(t, other.Body.String(), "not available")
}

func TestReserveEndpointValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.Equal(t, http.StatusUnauthorized,
		doRequest(h.Reserve, http.MethodPost, "/v1/seats/1/reserve", "1", nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		doRequest(h.Reserve, http.MethodPost, "/v1/seats/abc/reserve", "abc", float64(7)).Code)
	assert.Equal(t, http.StatusNotFound,
		doRequest(h.Reserve, http.MethodPost, "/v1/seats/99/reserve", "99", float64(7)).Code)
}

func TestReleaseEndpointIdempotent(t *testing.T) {
	h, store := newTestHandler(t)

	require.Equal(t, http.StatusCreated,
		doRequest(h.Reserve, http.MethodPost, "/v1/seats/1/reserve", "1", float64(7)).Code)

	rec := doRequest(h.Release, http.MethodDelete, "/v1/seats/1/reservation", "1", float64(7))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"released":true`)
	assert.Equal(t, model.SeatAvailable, store.seats[1].State)

	rec = doRequest(h.Release, http.MethodDelete, "/v1/seats/1/reservation", "1", float64(7))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"released":false`)
}

func TestMarkPaidEndpoint(t *testing.T) {
	h, store := newTestHandler(t)

	// PAID requires a live reservation.
	assert.Equal(t, http.StatusConflict,
		doRequest(h.MarkPaid, http.MethodPost, "/v1/seats/1/paid", "1", nil).Code)

	require.Equal(t, http.StatusCreated,
		doRequest(h.Reserve, http.MethodPost, "/v1/seats/1/reserve", "1", float64(7)).Code)
	assert.Equal(t, http.StatusNoContent,
		doRequest(h.MarkPaid, http.MethodPost, "/v1/seats/1/paid", "1", nil).Code)
	assert.Equal(t, model.SeatPaid, store.seats[1].State)

	// And back again via revert.
	assert.Equal(t, http.StatusNoContent,
		doRequest(h.RevertPaid, http.MethodPost, "/v1/seats/1/paid/revert", "1", nil).Code)
	assert.Equal(t, model.SeatAvailable, store.seats[1].State)
	assert.Equal(t, http.StatusConflict,
		doRequest(h.RevertPaid, http.MethodPost, "/v1/seats/1/paid/revert", "1", nil).Code)
}
