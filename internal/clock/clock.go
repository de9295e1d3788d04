// Package clock supplies install timestamps for registration records.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock, in UTC.
type System struct{}

// Now returns the current time in UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant. Used by tests.
type Fixed struct {
	at time.Time
}

// NewFixed creates a Fixed clock stopped at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{at: t}
}

// Now returns the stopped instant.
func (c *Fixed) Now() time.Time {
	return c.at
}
