package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervalRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want Interval
	}{
		{"every 3d", FromLastCompletion{Delta: Days(3)}},
		{"every 1h30m", FromLastCompletion{Delta: HoursMinutes(1, 30)}},
		{"every 45m", FromLastCompletion{Delta: HoursMinutes(0, 45)}},
		{"every 2h", FromLastCompletion{Delta: HoursMinutes(2, 0)}},
		{"daily 15:00", Daily{At: At(15, 0)}},
		{"daily 07:30:15", Daily{At: TimeOfDay{Hour: 7, Minute: 30, Second: 15}}},
		{"weekly mon 09:00", Weekly{Weekday: time.Monday, At: At(9, 0)}},
		{"monthly 15 09:00", Monthly{Day: 15, At: At(9, 0)}},
		{"annual 12-24 18:00", Annual{Month: time.December, Day: 24, At: At(18, 0)}},
		{"multiannual 01-15,06-30", MultiAnnual{Days: []AnnualDay{{time.January, 15}, {time.June, 30}}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseIntervalAlternativeForms(t *testing.T) {
	got, err := ParseInterval("weekly Friday 18.30")
	require.NoError(t, err)
	assert.Equal(t, Weekly{Weekday: time.Friday, At: At(18, 30)}, got)

	got, err = ParseInterval("daily 6 05")
	require.NoError(t, err)
	assert.Equal(t, Daily{At: At(6, 5)}, got)

	got, err = ParseInterval("yearly 02-29 12:00")
	require.NoError(t, err)
	assert.Equal(t, Annual{Month: time.February, Day: 29, At: At(12, 0)}, got)
}

func TestParseIntervalErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"daily",
		"hourly 10:00",
		"every 3x",
		"every 90s",
		"daily 25:00",
		"weekly funday 10:00",
		"monthly 32 10:00",
		"monthly 0 10:00",
		"annual 02-30 10:00",
		"annual 13-01 10:00",
		"annual 1224 10:00",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseInterval(in)
			assert.Error(t, err)
		})
	}
}

func TestHeuristic(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		iv   Interval
		want time.Duration
		ok   bool
	}{
		{FromLastCompletion{Delta: Days(2)}, 2 * day, true},
		{FromLastCompletion{Delta: HoursMinutes(1, 15)}, 75 * time.Minute, true},
		{Daily{At: At(9, 0)}, day, true},
		{Weekly{Weekday: time.Monday, At: At(9, 0)}, 7 * day, true},
		{Monthly{Day: 1, At: At(9, 0)}, 30 * day, true},
		{Annual{Month: time.May, Day: 1, At: At(9, 0)}, 365 * day, true},
		{MultiAnnual{Days: []AnnualDay{{time.May, 1}}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.iv.String(), func(t *testing.T) {
			got, ok := tt.iv.Heuristic()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPeriodic(t *testing.T) {
	assert.False(t, IsPeriodic(FromLastCompletion{Delta: Days(1)}))
	assert.True(t, IsPeriodic(Daily{}))
	assert.True(t, IsPeriodic(MultiAnnual{}))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "triggers 1h20m after previous completion", FromLastCompletion{Delta: HoursMinutes(1, 20)}.Describe())
	assert.Equal(t, "triggers weekly on Monday at 09:00", Weekly{Weekday: time.Monday, At: At(9, 0)}.Describe())
}
