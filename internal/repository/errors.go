// Package repository provides data access to the seat inventory tables.
// Sentinel errors defined here let higher layers distinguish failure
// scenarios with errors.Is: handlers translate them into HTTP statuses and
// the command handlers decide which ones are worth retrying.
package repository

import "errors"

// ErrSeatMapNotFound is returned when no seat map exists for the requested
// event or seat.  Handlers should translate this into an HTTP 404 response.
var ErrSeatMapNotFound = errors.New("seat map not found")

// ErrSeatNotFound is returned when the requested seat id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrSeatNotFound = errors.New("seat not found")

// ErrHolderNotFound is returned when a holder lookup matches no row.
var ErrHolderNotFound = errors.New("holder not found")

// ErrConcurrencyConflict is returned by a save when the seat row was
// modified since it was loaded: its version no longer matches the optimistic
// concurrency token.  Command handlers reload, re-validate the precondition
// and retry a bounded number of times; this error must never surface to a
// client directly.
var ErrConcurrencyConflict = errors.New("concurrent modification detected")

// ErrDuplicate is returned when an insert violates a uniqueness constraint,
// e.g. two categories with the same name or two seats at (row, number).
var ErrDuplicate = errors.New("duplicate entry")
