// Package metrics defines the Prometheus instruments for the seat engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations counts seat commands by operation and outcome.  Operation
	// is reserve/release/mark_paid/revert_paid/expire/ticket_cancelled;
	// outcome is success/rejected/noop/failed.
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_operations_total",
			Help: "Seat commands processed, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// ConcurrencyConflicts counts optimistic-lock save rejections that
	// triggered a reload-and-retry.
	ConcurrencyConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_concurrency_conflicts_total",
			Help: "Seat saves rejected by the version check",
		},
	)

	// Expirations counts reservations released by the expiry scheduler.
	Expirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_reservation_expirations_total",
			Help: "Reservations released because the TTL elapsed unpaid",
		},
	)

	// ReservationOutcome observes how long a reservation stayed open
	// before it was paid or released.
	ReservationOutcome = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seat_reservation_open_seconds",
			Help:    "Time between reserve and the terminal transition",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"outcome"},
	)
)
