package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureHandler struct {
	events []TicketCancelledEvent
	err    error
}

func (h *captureHandler) HandleTicketCancelled(_ context.Context, ev TicketCancelledEvent) error {
	h.events = append(h.events, ev)
	return h.err
}

func TestHandleDelivery(t *testing.T) {
	h := &captureHandler{}
	body := []byte(`{"seat_id": 12, "ticket_id": 500, "event_id": 42}`)

	require.NoError(t, handleDelivery(context.Background(), body, h))
	require.Len(t, h.events, 1)
	assert.Equal(t, TicketCancelledEvent{SeatID: 12, TicketID: 500, EventID: 42}, h.events[0])
}

func TestHandleDeliveryMalformed(t *testing.T) {
	h := &captureHandler{}

	err := handleDelivery(context.Background(), []byte("not json"), h)
	assert.ErrorIs(t, err, errMalformed)

	// Valid JSON but no seat: still poison, the handler never runs.
	err = handleDelivery(context.Background(), []byte(`{"ticket_id": 500}`), h)
	assert.ErrorIs(t, err, errMalformed)
	assert.Empty(t, h.events)
}

func TestHandleDeliveryPropagatesHandlerError(t *testing.T) {
	want := errors.New("db down")
	h := &captureHandler{err: want}
	body := []byte(`{"seat_id": 12}`)

	err := handleDelivery(context.Background(), body, h)
	assert.ErrorIs(t, err, want)
	assert.NotErrorIs(t, err, errMalformed)
}
