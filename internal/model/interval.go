package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval describes when an event recurs. It is either FromLastCompletion
// or one of the TimePeriod kinds.
type Interval interface {
	// String returns the interval in the form accepted by ParseInterval.
	String() string
	// Describe returns a human readable sentence.
	Describe() string
	// Heuristic is an approximate period length used to rank events for
	// display. It is never used to decide when an event triggers.
	Heuristic() (time.Duration, bool)

	next(anchor time.Time, loc *time.Location) (time.Time, error)
}

// TimePeriod is an Interval pinned to the calendar rather than to the last
// completion.
type TimePeriod interface {
	Interval
	period()
}

// IsPeriodic reports whether iv is a calendar-pinned recurrence.
func IsPeriodic(iv Interval) bool {
	_, ok := iv.(TimePeriod)
	return ok
}

// DeltaKind tells how a TimeDelta is applied.
type DeltaKind uint8

const (
	DeltaDays DeltaKind = iota
	DeltaHoursMinutes
)

// TimeDelta is either a number of calendar days or a wall-clock duration.
type TimeDelta struct {
	Kind    DeltaKind
	Days    int
	Hours   int
	Minutes int
}

func Days(n int) TimeDelta {
	return TimeDelta{Kind: DeltaDays, Days: n}
}

func HoursMinutes(h, m int) TimeDelta {
	return TimeDelta{Kind: DeltaHoursMinutes, Hours: h, Minutes: m}
}

// Duration returns the delta as a fixed duration, counting a day as 24h.
func (d TimeDelta) Duration() time.Duration {
	if d.Kind == DeltaDays {
		return time.Duration(d.Days) * 24 * time.Hour
	}
	return time.Duration(d.Hours)*time.Hour + time.Duration(d.Minutes)*time.Minute
}

// ApplyTo adds the delta to t. Days are calendar days, so a day across a DST
// change keeps the wall-clock time.
func (d TimeDelta) ApplyTo(t time.Time) time.Time {
	if d.Kind == DeltaDays {
		return t.AddDate(0, 0, d.Days)
	}
	return t.Add(d.Duration())
}

func (d TimeDelta) String() string {
	if d.Kind == DeltaDays {
		return fmt.Sprintf("%dd", d.Days)
	}
	var sb strings.Builder
	if d.Hours != 0 {
		sb.WriteString(fmt.Sprintf("%dh", d.Hours))
	}
	if d.Minutes != 0 || d.Hours == 0 {
		sb.WriteString(fmt.Sprintf("%dm", d.Minutes))
	}
	return sb.String()
}

// FromLastCompletion triggers a fixed delta after the previous anchor.
type FromLastCompletion struct {
	Delta TimeDelta
}

// Daily triggers every day at a time.
type Daily struct {
	At TimeOfDay
}

// Weekly triggers on a weekday at a time.
type Weekly struct {
	Weekday time.Weekday
	At      TimeOfDay
}

// Monthly triggers on a day of the month at a time.
type Monthly struct {
	Day int
	At  TimeOfDay
}

// Annual triggers once a year on a date at a time.
type Annual struct {
	Month time.Month
	Day   int
	At    TimeOfDay
}

// AnnualDay is a month and day without a year.
type AnnualDay struct {
	Month time.Month
	Day   int
}

func (d AnnualDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(d.Month), d.Day)
}

// MultiAnnual lists several dates per year. It can be stored and displayed
// but has no scheduling rule.
type MultiAnnual struct {
	Days []AnnualDay
}

func (Daily) period()       {}
func (Weekly) period()      {}
func (Monthly) period()     {}
func (Annual) period()      {}
func (MultiAnnual) period() {}

func (iv FromLastCompletion) String() string { return "every " + iv.Delta.String() }
func (iv Daily) String() string              { return "daily " + iv.At.String() }
func (iv Weekly) String() string {
	return fmt.Sprintf("weekly %s %s", shortWeekday(iv.Weekday), iv.At)
}
func (iv Monthly) String() string { return fmt.Sprintf("monthly %d %s", iv.Day, iv.At) }
func (iv Annual) String() string {
	return fmt.Sprintf("annual %s %s", AnnualDay{Month: iv.Month, Day: iv.Day}, iv.At)
}
func (iv MultiAnnual) String() string {
	parts := make([]string, 0, len(iv.Days))
	for _, d := range iv.Days {
		parts = append(parts, d.String())
	}
	return "multiannual " + strings.Join(parts, ",")
}

func (iv FromLastCompletion) Describe() string {
	return fmt.Sprintf("triggers %s after previous completion", iv.Delta)
}
func (iv Daily) Describe() string { return fmt.Sprintf("triggers daily at %s", iv.At) }
func (iv Weekly) Describe() string {
	return fmt.Sprintf("triggers weekly on %s at %s", iv.Weekday, iv.At)
}
func (iv Monthly) Describe() string {
	return fmt.Sprintf("triggers monthly on day %d at %s", iv.Day, iv.At)
}
func (iv Annual) Describe() string {
	return fmt.Sprintf("triggers annually on %s at %s", AnnualDay{Month: iv.Month, Day: iv.Day}, iv.At)
}
func (iv MultiAnnual) Describe() string {
	return fmt.Sprintf("triggers multi-annually on %s", strings.TrimPrefix(iv.String(), "multiannual "))
}

func (iv FromLastCompletion) Heuristic() (time.Duration, bool) { return iv.Delta.Duration(), true }
func (Daily) Heuristic() (time.Duration, bool)                  { return 24 * time.Hour, true }
func (Weekly) Heuristic() (time.Duration, bool)                 { return 7 * 24 * time.Hour, true }
func (Monthly) Heuristic() (time.Duration, bool)                { return 30 * 24 * time.Hour, true }
func (Annual) Heuristic() (time.Duration, bool)                 { return 365 * 24 * time.Hour, true }
func (MultiAnnual) Heuristic() (time.Duration, bool)            { return 0, false }

func (iv FromLastCompletion) next(anchor time.Time, loc *time.Location) (time.Time, error) {
	return iv.Delta.ApplyTo(anchor.In(loc)), nil
}

func (iv Daily) next(anchor time.Time, loc *time.Location) (time.Time, error) {
	a := anchor.In(loc)
	y, m, d := a.Date()
	candidate, err := iv.At.On(y, m, d, loc)
	if err != nil {
		return time.Time{}, err
	}
	if candidate.Before(a) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate, nil
}

func (iv Weekly) next(anchor time.Time, loc *time.Location) (time.Time, error) {
	a := anchor.In(loc)
	y, m, d := a.Date()
	// Monday of the anchor's ISO week, then the wanted weekday within it.
	monday := time.Date(y, m, d-isoIndex(a.Weekday()), 0, 0, 0, 0, loc)
	day := monday.AddDate(0, 0, isoIndex(iv.Weekday))
	candidate, err := iv.At.On(day.Year(), day.Month(), day.Day(), loc)
	if err != nil {
		return time.Time{}, err
	}
	if candidate.Before(a) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate, nil
}

func (iv Monthly) next(anchor time.Time, loc *time.Location) (time.Time, error) {
	a := anchor.In(loc)
	y, m, _ := a.Date()
	candidate, err := iv.At.On(y, m, iv.Day, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !candidate.Before(a) {
		return candidate, nil
	}
	if m == time.December {
		y, m = y+1, time.January
	} else {
		m++
	}
	return iv.At.On(y, m, iv.Day, loc)
}

func (iv Annual) next(anchor time.Time, loc *time.Location) (time.Time, error) {
	a := anchor.In(loc)
	candidate, err := iv.At.On(a.Year(), iv.Month, iv.Day, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !candidate.Before(a) {
		return candidate, nil
	}
	return iv.At.On(a.Year()+1, iv.Month, iv.Day, loc)
}

func (MultiAnnual) next(time.Time, *time.Location) (time.Time, error) {
	return time.Time{}, fmt.Errorf("multiannual: %w", ErrUnsupported)
}

// isoIndex maps Monday..Sunday to 0..6.
func isoIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// ParseInterval reads the forms produced by Interval.String:
//
//	every 3d | every 1h30m | daily 15:00 | weekly mon 09:00
//	monthly 15 09:00 | annual 12-24 18:00 | multiannual 01-15,06-30
func ParseInterval(raw string) (Interval, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return nil, fmt.Errorf("invalid interval %q", raw)
	}
	rest := func(from int) string { return strings.Join(fields[from:], " ") }

	switch strings.ToLower(fields[0]) {
	case "every":
		delta, err := parseDelta(rest(1))
		if err != nil {
			return nil, err
		}
		return FromLastCompletion{Delta: delta}, nil
	case "daily":
		at, err := ParseTimeOfDay(rest(1))
		if err != nil {
			return nil, err
		}
		return Daily{At: at}, nil
	case "weekly":
		if len(fields) < 3 {
			return nil, fmt.Errorf("weekly interval needs a weekday and a time")
		}
		wd, err := ParseWeekday(fields[1])
		if err != nil {
			return nil, err
		}
		at, err := ParseTimeOfDay(rest(2))
		if err != nil {
			return nil, err
		}
		return Weekly{Weekday: wd, At: at}, nil
	case "monthly":
		if len(fields) < 3 {
			return nil, fmt.Errorf("monthly interval needs a day and a time")
		}
		day, err := strconv.Atoi(fields[1])
		if err != nil || day < 1 || day > 31 {
			return nil, fmt.Errorf("invalid day of month %q", fields[1])
		}
		at, err := ParseTimeOfDay(rest(2))
		if err != nil {
			return nil, err
		}
		return Monthly{Day: day, At: at}, nil
	case "annual", "annually", "yearly":
		if len(fields) < 3 {
			return nil, fmt.Errorf("annual interval needs a date and a time")
		}
		date, err := parseAnnualDay(fields[1])
		if err != nil {
			return nil, err
		}
		at, err := ParseTimeOfDay(rest(2))
		if err != nil {
			return nil, err
		}
		return Annual{Month: date.Month, Day: date.Day, At: at}, nil
	case "multiannual":
		var days []AnnualDay
		for _, part := range strings.Split(rest(1), ",") {
			date, err := parseAnnualDay(part)
			if err != nil {
				return nil, err
			}
			days = append(days, date)
		}
		return MultiAnnual{Days: days}, nil
	default:
		return nil, fmt.Errorf("unknown interval kind %q", fields[0])
	}
}

func parseDelta(raw string) (TimeDelta, error) {
	raw = strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if n, ok := strings.CutSuffix(raw, "d"); ok {
		days, err := strconv.Atoi(n)
		if err != nil || days < 0 {
			return TimeDelta{}, fmt.Errorf("invalid day count %q", raw)
		}
		return Days(days), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 || d%time.Minute != 0 {
		return TimeDelta{}, fmt.Errorf("invalid delta %q, expected e.g. 3d or 1h30m", raw)
	}
	return HoursMinutes(int(d/time.Hour), int(d%time.Hour/time.Minute)), nil
}

// parseAnnualDay reads MM-DD. February 29th is accepted; whether it exists
// is decided per year when scheduling.
func parseAnnualDay(raw string) (AnnualDay, error) {
	month, day, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return AnnualDay{}, fmt.Errorf("invalid date %q, expected MM-DD", raw)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return AnnualDay{}, fmt.Errorf("invalid month in %q", raw)
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return AnnualDay{}, fmt.Errorf("invalid day in %q", raw)
	}
	// 2000 is a leap year.
	if !validDate(2000, time.Month(m), d) {
		return AnnualDay{}, fmt.Errorf("invalid date %q", raw)
	}
	return AnnualDay{Month: time.Month(m), Day: d}, nil
}
