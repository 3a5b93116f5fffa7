package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/model"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "seat-updates.42", Channel(42))
}

func TestRedisNotifierPublishesToEventChannel(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewRedisNotifier(rdb, logger)

	holder := uint64(7)
	update := SeatUpdate{EventID: 42, SeatID: 12, State: model.SeatReserved, HolderID: &holder}
	body, err := json.Marshal(update)
	require.NoError(t, err)

	mock.ExpectPublish("seat-updates.42", body).SetVal(1)
	n.Notify(context.Background(), update)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisNotifierSwallowsPublishFailure(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewRedisNotifier(rdb, logger)

	update := SeatUpdate{EventID: 1, SeatID: 2, State: model.SeatAvailable}
	body, err := json.Marshal(update)
	require.NoError(t, err)

	mock.ExpectPublish("seat-updates.1", body).SetErr(assert.AnError)
	// Must not panic or surface the error.
	n.Notify(context.Background(), update)

	assert.NoError(t, mock.ExpectationsWereMet())
}
