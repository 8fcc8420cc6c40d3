package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupported is returned for recurrences that have no scheduling rule.
	ErrUnsupported = errors.New("unsupported recurrence")
	// ErrInvariant marks a status that cannot occur through the transitions,
	// e.g. a triggered status without trigger times.
	ErrInvariant = errors.New("status invariant violated")
)

// InvalidDateError reports a calendar date that does not exist.
type InvalidDateError struct {
	Year  int
	Month time.Month
	Day   int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid calendar date %04d-%02d-%02d", e.Year, int(e.Month), e.Day)
}
