package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

var utc = NewCalendar(time.UTC)

func dormantAt(iv Interval, anchor time.Time) TrackedEvent {
	return NewTrackedEvent(NewEventData("test event", iv), anchor)
}

func mustNext(t *testing.T, ev TrackedEvent) time.Time {
	t.Helper()
	next, ok, err := ev.NextDue(utc)
	require.NoError(t, err)
	require.True(t, ok)
	return next
}

func TestMonthEndTriggersNextDay(t *testing.T) {
	anchor, err := time.Parse(time.RFC3339, "2020-01-31T14:00:00-02:00")
	require.NoError(t, err)

	next := mustNext(t, dormantAt(Daily{At: At(15, 0)}, anchor))

	y, m, d := next.Date()
	assert.Equal(t, 2020, y)
	assert.Equal(t, time.February, m)
	assert.Equal(t, 1, d)
	assert.Equal(t, 15, next.Hour())
}

func TestFreshEventTriggersAfterDelta(t *testing.T) {
	ev := dormantAt(FromLastCompletion{Delta: HoursMinutes(0, 1)}, t0)

	assert.Equal(t, t0.Add(time.Minute), mustNext(t, ev))
}

func TestDaysDeltaIsCalendarAware(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// DST starts 2024-03-31 in Helsinki; a day later is still 12:00 local.
	anchor := time.Date(2024, time.March, 30, 12, 0, 0, 0, loc)
	ev := dormantAt(FromLastCompletion{Delta: Days(1)}, anchor)

	next, ok, err := ev.NextDue(NewCalendar(loc))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 31, 12, 0, 0, 0, loc), next)
	assert.Equal(t, 23*time.Hour, next.Sub(anchor))
}

func TestPeriodicNextDue(t *testing.T) {
	tests := []struct {
		name   string
		iv     Interval
		anchor time.Time
		want   time.Time
	}{
		{
			name:   "daily later today",
			iv:     Daily{At: At(15, 0)},
			anchor: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "daily exactly at time is due now",
			iv:     Daily{At: At(15, 0)},
			anchor: time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "daily year end",
			iv:     Daily{At: At(8, 0)},
			anchor: time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly later this week",
			iv:     Weekly{Weekday: time.Friday, At: At(18, 0)},
			anchor: time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC), // Wednesday
			want:   time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly already passed",
			iv:     Weekly{Weekday: time.Monday, At: At(9, 0)},
			anchor: time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly sunday ends iso week",
			iv:     Weekly{Weekday: time.Sunday, At: At(10, 0)},
			anchor: time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC), // Monday
			want:   time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly iso week belongs to previous year",
			iv:     Weekly{Weekday: time.Monday, At: At(9, 0)},
			anchor: time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC), // Friday of 2020-W53
			want:   time.Date(2021, 1, 4, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "monthly this month",
			iv:     Monthly{Day: 20, At: At(9, 0)},
			anchor: time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "monthly december wraps",
			iv:     Monthly{Day: 5, At: At(9, 0)},
			anchor: time.Date(2024, 12, 8, 12, 0, 0, 0, time.UTC),
			want:   time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "annual this year",
			iv:     Annual{Month: time.December, Day: 24, At: At(18, 0)},
			anchor: time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC),
		},
		{
			name:   "annual next year",
			iv:     Annual{Month: time.January, Day: 6, At: At(7, 0)},
			anchor: time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC),
			want:   time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustNext(t, dormantAt(tt.iv, tt.anchor)))
		})
	}
}

func TestInvalidCalendarDatesAreErrors(t *testing.T) {
	tests := []struct {
		name   string
		iv     Interval
		anchor time.Time
	}{
		{"monthly 30 in february", Monthly{Day: 30, At: At(9, 0)}, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"monthly 31 rolls into april", Monthly{Day: 31, At: At(9, 0)}, time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)},
		{"annual leap day in common year", Annual{Month: time.February, Day: 29, At: At(9, 0)}, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := dormantAt(tt.iv, tt.anchor).NextDue(utc)
			var dateErr *InvalidDateError
			require.True(t, errors.As(err, &dateErr), "got %v", err)
			assert.False(t, ok)
		})
	}
}

func TestAnnualLeapDayInLeapYear(t *testing.T) {
	ev := dormantAt(Annual{Month: time.February, Day: 29, At: At(9, 0)}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), mustNext(t, ev))
}

func TestMultiAnnualIsUnsupported(t *testing.T) {
	ev := dormantAt(MultiAnnual{Days: []AnnualDay{{time.March, 1}}}, t0)

	_, _, err := ev.NextDue(utc)
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, _, err = ev.FractionRemaining(utc, t0)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestStackingLaw(t *testing.T) {
	t.Run("non-stacking is not scheduled once triggered", func(t *testing.T) {
		ev := dormantAt(FromLastCompletion{Delta: HoursMinutes(0, 1)}, t0)
		ev.Status.Trigger(t0)

		_, ok, err := ev.NextDue(utc)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = ev.FractionRemaining(utc, t0)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stacking keeps counting from the last trigger", func(t *testing.T) {
		ev := dormantAt(FromLastCompletion{Delta: HoursMinutes(0, 1)}, t0)
		ev.Data.Stacks = true
		for i := 1; i <= 3; i++ {
			ev.Status.Trigger(t0.Add(time.Duration(i) * time.Minute))
			assert.Len(t, ev.Status.TriggerTimes, i)
		}
		next := mustNext(t, ev)
		assert.Equal(t, t0.Add(4*time.Minute), next)
	})
}

func TestForwardOnly(t *testing.T) {
	intervals := []Interval{
		FromLastCompletion{Delta: Days(0)},
		FromLastCompletion{Delta: Days(3)},
		FromLastCompletion{Delta: HoursMinutes(0, 0)},
		FromLastCompletion{Delta: HoursMinutes(2, 15)},
		Daily{At: At(0, 0)},
		Daily{At: At(23, 59)},
		Weekly{Weekday: time.Monday, At: At(9, 0)},
		Weekly{Weekday: time.Sunday, At: At(21, 0)},
		Monthly{Day: 1, At: At(0, 0)},
		Monthly{Day: 28, At: At(12, 0)},
		Annual{Month: time.January, Day: 1, At: At(0, 0)},
		Annual{Month: time.December, Day: 31, At: At(23, 0)},
	}
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	for _, iv := range intervals {
		for anchor := start; anchor.Before(start.AddDate(1, 2, 0)); anchor = anchor.Add(37*time.Hour + 13*time.Minute) {
			for _, phase := range []Phase{Dormant, Completed, Skipped} {
				ev := TrackedEvent{Data: NewEventData("x", iv), Status: Status{Kind: StatusKind{Phase: phase, At: anchor}}}
				next, ok, err := ev.NextDue(utc)
				require.NoError(t, err, "%s from %s", iv, anchor)
				require.True(t, ok)
				require.False(t, next.Before(anchor), "%s from %s gave %s", iv, anchor, next)
			}
		}
	}
}

// Periodic rules are checked against an independent RRULE expansion.
func TestPeriodicAgreesWithRRule(t *testing.T) {
	tests := []struct {
		iv  Interval
		opt rrule.ROption
	}{
		{Daily{At: At(15, 0)}, rrule.ROption{Freq: rrule.DAILY, Byhour: []int{15}, Byminute: []int{0}, Bysecond: []int{0}}},
		{Weekly{Weekday: time.Wednesday, At: At(7, 30)}, rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{rrule.WE}, Byhour: []int{7}, Byminute: []int{30}, Bysecond: []int{0}}},
		{Monthly{Day: 15, At: At(9, 0)}, rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: []int{15}, Byhour: []int{9}, Byminute: []int{0}, Bysecond: []int{0}}},
		{Annual{Month: time.July, Day: 4, At: At(12, 0)}, rrule.ROption{Freq: rrule.YEARLY, Bymonth: []int{7}, Bymonthday: []int{4}, Byhour: []int{12}, Byminute: []int{0}, Bysecond: []int{0}}},
	}
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.iv.String(), func(t *testing.T) {
			opt := tt.opt
			opt.Dtstart = start.AddDate(-1, 0, 0)
			rule, err := rrule.NewRRule(opt)
			require.NoError(t, err)

			for anchor := start; anchor.Before(start.AddDate(2, 0, 0)); anchor = anchor.Add(61*time.Hour + 7*time.Minute) {
				want := rule.After(anchor, true)
				got := mustNext(t, dormantAt(tt.iv, anchor))
				require.True(t, want.Equal(got), "anchor %s: rrule %s, got %s", anchor, want, got)
			}
		})
	}
}

func TestFractionRemaining(t *testing.T) {
	ev := dormantAt(FromLastCompletion{Delta: HoursMinutes(1, 0)}, t0)

	frac, ok, err := ev.FractionRemaining(utc, t0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1.0, frac, 1e-9)

	frac, _, _ = ev.FractionRemaining(utc, t0.Add(45*time.Minute))
	assert.InDelta(t, 0.25, frac, 1e-9)

	frac, _, _ = ev.FractionRemaining(utc, t0.Add(2*time.Hour))
	assert.InDelta(t, -1.0, frac, 1e-9)

	zero := dormantAt(FromLastCompletion{Delta: HoursMinutes(0, 0)}, t0)
	frac, ok, err = zero.FractionRemaining(utc, t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, frac)
}

func TestUpdate(t *testing.T) {
	ev := dormantAt(FromLastCompletion{Delta: HoursMinutes(0, 1)}, t0)

	triggered, err := ev.Update(utc, t0.Add(59*time.Second))
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.False(t, ev.IsTriggered())

	triggered, err = ev.Update(utc, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.True(t, ev.IsTriggered())

	// Non-stacking: nothing more happens until it is completed.
	triggered, err = ev.Update(utc, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.Len(t, ev.Status.TriggerTimes, 1)
}

func TestUpdateResolvesSkip(t *testing.T) {
	ev := dormantAt(Daily{At: At(9, 0)}, t0)
	ev.Status.Skip(t0)

	_, err := ev.Update(utc, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, ev.IsDone())
}
