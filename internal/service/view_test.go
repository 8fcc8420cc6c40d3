package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-tracker/internal/command"
	"event-tracker/internal/model"
	"event-tracker/internal/store"
)

// mixed holds, by uid: 0 daily due in 1h, 1 daily due in 12h, 2 triggered
// every-3d, 3 skipped weekly, 4 multiannual.
func mixed() *store.EventStore {
	events := store.New()
	events.MustAdd(0, model.NewTrackedEvent(model.NewEventData("soon", model.Daily{At: model.At(9, 0)}), t0))
	events.MustAdd(1, model.NewTrackedEvent(model.NewEventData("tonight", model.Daily{At: model.At(20, 0)}), t0))

	due := model.NewTrackedEvent(model.NewEventData("laundry", model.FromLastCompletion{Delta: model.Days(3)}), t0)
	due.Status.Trigger(t0)
	events.MustAdd(2, due)

	skipped := model.NewTrackedEvent(model.NewEventData("gym", model.Weekly{Weekday: time.Monday, At: model.At(9, 0)}), t0)
	skipped.Status.Skip(t0)
	events.MustAdd(3, skipped)

	events.MustAdd(4, model.NewTrackedEvent(model.NewEventData("holidays", model.MultiAnnual{Days: []model.AnnualDay{{Month: time.May, Day: 1}}}), t0))
	return events
}

func TestExtendedListsAllInOrder(t *testing.T) {
	v := NewView(1.0 / 12)
	rows := v.Rows(mixed(), utc, t0)

	assert.Equal(t, []model.Uid{0, 1, 2, 3, 4}, Uids(rows))
	for i, r := range rows {
		assert.Equal(t, i, r.ID)
	}
	assert.True(t, rows[0].Daily)
	assert.False(t, rows[2].Scheduled)
	assert.Equal(t, time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC), rows[3].Next)
	assert.Error(t, rows[4].Err)
}

func TestStandardListsOnlyAttention(t *testing.T) {
	v := NewView(1.0 / 12)
	v.SetMode(command.Standard)

	rows := v.Rows(mixed(), utc, t0)

	assert.Equal(t, []model.Uid{0, 2}, Uids(rows))
}

func TestTriggeredSortByPeriod(t *testing.T) {
	events := store.New()
	for uid, days := range map[model.Uid]int{0: 7, 1: 2, 2: 4} {
		ev := model.NewTrackedEvent(model.NewEventData("e", model.FromLastCompletion{Delta: model.Days(days)}), t0)
		ev.Status.Trigger(t0)
		events.MustAdd(uid, ev)
	}

	rows := NewView(1.0/12).Rows(events, utc, t0)

	assert.Equal(t, []model.Uid{1, 2, 0}, Uids(rows))
}

func TestRenderExtended(t *testing.T) {
	rows := NewView(1.0/12).Rows(mixed(), utc, t0)

	out := Render(command.Extended, rows, t0)

	assert.Contains(t, out, "=== Daily Events (extended) ===")
	assert.Contains(t, out, "=== Events (extended) ===")
	assert.Contains(t, out, "* ( 2)    Not scheduled - laundry")
	assert.Contains(t, out, "Unschedulable - holidays")
	assert.Contains(t, out, "Sun 10.3.  09:00 - soon (triggers daily at 09:00, current: dormant since 2024-03-10 08:00)")
	for _, k := range command.Keys {
		assert.Contains(t, out, k.Desc)
	}
}

func TestRenderStandard(t *testing.T) {
	v := NewView(1.0 / 12)
	v.SetMode(command.Standard)
	rows := v.Rows(mixed(), utc, t0)

	out := Render(command.Standard, rows, t0)

	assert.Contains(t, out, "  ( 0)   (soon) - (triggers today at 09:00)")
	assert.Contains(t, out, "* ( 1)   laundry")
	assert.NotContains(t, out, "tonight")
}

func TestRenderEmpty(t *testing.T) {
	out := Render(command.Standard, nil, t0)
	require.True(t, strings.HasPrefix(out, "=== No Events (standard) ==="))
}

func TestSummary(t *testing.T) {
	rows := NewView(1.0/12).Rows(mixed(), utc, t0)

	out := Summary(rows, t0)

	assert.Contains(t, out, "Digest 2024-03-10 08:00")
	assert.Contains(t, out, "(2) laundry")
	assert.Contains(t, out, "(0) soon today at 09:00")
	assert.Contains(t, out, "(1) tonight today at 20:00")
	assert.NotContains(t, out, "gym")
}
