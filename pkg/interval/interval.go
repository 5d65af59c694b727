// Package interval provides the canonical half-open UTC time interval used
// for slot bookings and busy-window conflict checks. Timestamps are
// normalized to UTC exactly once, at construction; comparison logic never
// converts.
package interval

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("interval: end must be after start")

// Interval is a half-open time range [Start, End) in UTC.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds an Interval from two instants, normalizing both to UTC.
// Rejects empty and inverted ranges.
func New(start, end time.Time) (Interval, error) {
	start = start.UTC()
	end = end.UTC()
	if !end.After(start) {
		return Interval{}, ErrInvalidRange
	}
	return Interval{Start: start, End: end}, nil
}

// Parse builds an Interval from two RFC 3339 timestamps. Offsets are honored
// as given (including fixed-offset corrections applied upstream for providers
// that report naive local time) and folded into UTC here.
func Parse(start, end string) (Interval, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return Interval{}, fmt.Errorf("interval: parse start: %w", err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return Interval{}, fmt.Errorf("interval: parse end: %w", err)
	}
	return New(s, e)
}

// Overlaps reports whether i and o share any instant. Half-open semantics:
// back-to-back intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Date returns the UTC calendar date of the interval's start, truncated to
// midnight. Used as the slot's owning date for uniqueness checks.
func (i Interval) Date() time.Time {
	y, m, d := i.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}
