package model

import (
	"fmt"
	"time"
)

// Calendar evaluates recurrence rules. Wall-clock times and calendar dates
// of periodic intervals are resolved in its location.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a calendar for loc, or for time.Local when loc is nil.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// NextDue returns the next time e triggers. ok is false when the event is
// triggered and does not stack: it will not trigger again until reset.
func (e TrackedEvent) NextDue(cal Calendar) (next time.Time, ok bool, err error) {
	if e.Status.IsTriggered() && !e.Data.Stacks {
		return time.Time{}, false, nil
	}
	if e.Data.Interval == nil {
		return time.Time{}, false, fmt.Errorf("event %q has no interval: %w", e.Data.Text, ErrInvariant)
	}
	anchor, err := e.Status.Anchor()
	if err != nil {
		return time.Time{}, false, err
	}
	next, err = e.Data.Interval.next(anchor, cal.Location())
	if err != nil {
		return time.Time{}, false, fmt.Errorf("next due of %q: %w", e.Data.Text, err)
	}
	return next, true, nil
}

// FractionRemaining returns (next due - at) / heuristic period. ok is false
// when either the next due time or the heuristic is undefined. Only used to
// prioritize events for display.
func (e TrackedEvent) FractionRemaining(cal Calendar, at time.Time) (float64, bool, error) {
	next, ok, err := e.NextDue(cal)
	if err != nil || !ok {
		return 0, false, err
	}
	period, ok := e.Data.Interval.Heuristic()
	if !ok {
		return 0, false, nil
	}
	seconds := int64(period / time.Second)
	if seconds == 0 {
		return 0, true, nil
	}
	until := int64(next.Sub(at) / time.Second)
	return float64(until) / float64(seconds), true, nil
}

// Update triggers the event when now has reached its next due time and
// reports whether it became newly triggered.
func (e *TrackedEvent) Update(cal Calendar, now time.Time) (bool, error) {
	next, ok, err := e.NextDue(cal)
	if err != nil || !ok {
		return false, err
	}
	if now.Before(next) {
		return false, nil
	}
	return e.Status.Trigger(now), nil
}
