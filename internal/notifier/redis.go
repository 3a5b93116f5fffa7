package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces the per-event pub/sub channels.  Subscribers
// (the gateway's websocket fan-out) subscribe to seat-updates.<event_id>.
const channelPrefix = "seat-updates"

// RedisNotifier broadcasts seat updates over Redis pub/sub, one logical
// channel per event id.
type RedisNotifier struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewRedisNotifier returns a notifier publishing to the given Redis client.
func NewRedisNotifier(rdb *redis.Client, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logger}
}

// Channel returns the pub/sub channel name for an event.
func Channel(eventID uint64) string {
	return fmt.Sprintf("%s.%d", channelPrefix, eventID)
}

// Notify publishes the update as JSON on the event's channel.  A publish
// failure is logged and swallowed; real-time delivery is best-effort and
// must never fail a committed transition.
func (n *RedisNotifier) Notify(ctx context.Context, update SeatUpdate) {
	body, err := json.Marshal(update)
	if err != nil {
		n.logger.Error("seat update marshal failed", "error", err, "seat_id", update.SeatID)
		return
	}
	if err := n.rdb.Publish(ctx, Channel(update.EventID), body).Err(); err != nil {
		n.logger.Error("seat update publish failed", "error", err,
			"event_id", update.EventID, "seat_id", update.SeatID)
	}
}
