package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Accepted input layouts, most specific first.
var timeLayouts = []string{
	"15:04:05",
	"15.04.05",
	"15, 04, 05",
	"15:04",
	"15.04",
	"15 04",
}

// At returns a TimeOfDay with whole minutes.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// ParseTimeOfDay accepts "15:04", "15.04", "15 04" and the same with seconds.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", raw)
}

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On builds the instant at this time on the given calendar date. Dates that
// do not exist (February 30th, month 13) are reported, never normalized.
func (t TimeOfDay) On(year int, month time.Month, day int, loc *time.Location) (time.Time, error) {
	if !validDate(year, month, day) {
		return time.Time{}, &InvalidDateError{Year: year, Month: month, Day: day}
	}
	return time.Date(year, month, day, t.Hour, t.Minute, t.Second, 0, loc), nil
}

func validDate(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December {
		return false
	}
	return day >= 1 && day <= daysInMonth(month, year)
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)
	lastOfMonth := firstOfNextMonth.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseWeekday accepts short ("mon") and long ("monday") English names.
func ParseWeekday(raw string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return time.Sunday, fmt.Errorf("invalid weekday %q", raw)
	}
	return wd, nil
}

func shortWeekday(wd time.Weekday) string {
	return strings.ToLower(wd.String()[:3])
}
