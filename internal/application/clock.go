package application

import "time"

// Clock supplies the current instant in the fleet's configured timezone.
// Certificate status is computed against the calendar date it reports.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a Clock reading the system time in loc.
func NewClock(loc *time.Location) Clock {
	return Clock{loc: loc, now: time.Now}
}

// FixedClock returns a Clock that always reports t in t's location.
func FixedClock(t time.Time) Clock {
	return Clock{loc: t.Location(), now: func() time.Time { return t }}
}

// Now returns the current instant in the configured location.
func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}
