package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SeatEventsQueue is the durable queue carrying outbound seat events.
const SeatEventsQueue = "seat.events"

// Publisher publishes seat events to RabbitMQ.  The connection is dialed
// lazily and re-dialed once when a publish fails, so a broker restart costs
// at most one failed attempt.  Publishing is fire-and-forget from the
// command handlers' point of view: errors are logged and returned, and the
// caller may ignore them without interrupting the request flow; consumers
// reconcile missed events through the periodic sweep and their own
// idempotency.
type Publisher struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher that will dial the given AMQP URL on
// first use.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Publish marshals the event and sends it to the seat.events queue as a
// persistent message.
func (p *Publisher) Publish(ctx context.Context, ev SeatEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("seat event marshal failed", "error", err, "kind", ev.Kind)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.publishLocked(ctx, body); err == nil {
		return nil
	}
	// One reconnect attempt; the channel may have died with the broker.
	p.closeLocked()
	if err := p.publishLocked(ctx, body); err != nil {
		p.logger.Error("seat event publish failed", "error", err, "kind", ev.Kind, "seat_id", ev.SeatID)
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Publisher) publishLocked(ctx context.Context, body []byte) error {
	if err := p.ensureChannelLocked(); err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		"",              // default exchange
		SeatEventsQueue, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}

func (p *Publisher) ensureChannelLocked() error {
	if p.ch != nil {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(SeatEventsQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
