package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TicketCancelledQueue is the durable queue the ticket service publishes
// cancellation events to.
const TicketCancelledQueue = "ticket.cancelled"

// CancellationHandler applies a ticket cancellation to the seat inventory.
// Implementations must be idempotent: the broker delivers at least once and
// may reorder by one step.
type CancellationHandler interface {
	HandleTicketCancelled(ctx context.Context, ev TicketCancelledEvent) error
}

// StartTicketCancelledConsumer connects to RabbitMQ, declares the durable
// ticket.cancelled queue and consumes it until ctx is cancelled.  Messages
// are acked only after the handler succeeds.  A malformed payload is
// rejected without requeue (a poison message would loop forever); a handler
// failure is requeued after a short pause so a pending cancellation is never
// silently dropped.  Broker failures trigger a reconnect loop with
// exponential backoff.
func StartTicketCancelledConsumer(ctx context.Context, url string, handler CancellationHandler, logger *slog.Logger) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Error("ticket-cancelled consumer: dial failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(ctx, conn, handler, logger); err != nil {
			_ = conn.Close()
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("ticket-cancelled consumer: consume loop ended", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, handler CancellationHandler, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("ticket-cancelled consumer: set QoS failed", "error", err)
	}

	if _, err := ch.QueueDeclare(TicketCancelledQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(TicketCancelledQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleDelivery(ctx, d.Body, handler); err != nil {
				if errors.Is(err, errMalformed) {
					logger.Error("ticket-cancelled consumer: rejecting malformed message", "error", err)
					_ = d.Nack(false, false) // poison, do not requeue
					continue
				}
				logger.Error("ticket-cancelled consumer: handle failed, requeueing", "error", err)
				_ = d.Nack(false, true)
				// Pause so a persistently failing dependency does not
				// turn redelivery into a tight loop.
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
				}
				continue
			}
			_ = d.Ack(false)
		}
	}
}

var errMalformed = errors.New("malformed payload")

// handleDelivery decodes one delivery and hands it to the handler.  Split
// out for testing.
func handleDelivery(ctx context.Context, body []byte, handler CancellationHandler) error {
	var ev TicketCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if ev.SeatID == 0 {
		return fmt.Errorf("%w: missing seat_id", errMalformed)
	}
	return handler.HandleTicketCancelled(ctx, ev)
}
