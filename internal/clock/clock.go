// Package clock abstracts time so reservation TTL logic can be tested
// without sleeping.
package clock

import "time"

// Clock supplies the current instant to services that make time-based
// decisions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a clock pinned to a single instant, useful in tests.
type Fixed struct {
	Instant time.Time
}

// NewFixed returns a clock that always reports t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{Instant: t.UTC()}
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time {
	return f.Instant
}

// Advance moves the pinned instant forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.Instant = f.Instant.Add(d)
}
