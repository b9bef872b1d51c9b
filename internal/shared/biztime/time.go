// Package biztime is the single source of wall-clock time for the service.
// All storage and transport use UTC; implicit Local time is not used anywhere.
package biztime

import "time"

// Clock returns the current instant. Components take one so tests can move time.
type Clock func() time.Time

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// OrDefault returns c, or NowUTC when c is nil.
func (c Clock) OrDefault() Clock {
	if c == nil {
		return NowUTC
	}
	return c
}
