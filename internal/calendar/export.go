// Package calendar exports upcoming due times as iCalendar data.
package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"event-tracker/internal/log"
	"event-tracker/internal/model"
	"event-tracker/internal/store"
)

const productID = "-//eventtracker//recurring events//EN"

// EventUID returns the iCalendar UID of an event. It only changes when the
// event is replaced, so calendar clients update entries instead of
// duplicating them.
func EventUID(uid model.Uid, text string) string {
	name := fmt.Sprintf("eventtracker:%d:%s", uid, text)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Export writes one VEVENT per scheduled event to w and returns how many
// were written. Calendar-pinned intervals carry an RRULE; events counted
// from their last completion only get their next due time. Events that are
// triggered without stacking or cannot be scheduled are left out.
func Export(w io.Writer, events *store.EventStore, cal model.Calendar, now time.Time) (int, error) {
	out := ical.NewCalendar()
	out.SetMethod(ical.MethodPublish)
	out.SetProductId(productID)

	written := 0
	for _, e := range events.Entries() {
		next, ok, err := e.Event.NextDue(cal)
		if err != nil {
			log.Debug("export skips unschedulable event", "uid", e.Uid, "err", err)
			continue
		}
		if !ok {
			continue
		}

		ve := out.AddEvent(EventUID(e.Uid, e.Event.Text()))
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(next.UTC())
		ve.SetSummary(e.Event.Text())
		ve.SetDescription(e.Event.Data.Interval.Describe())
		if rule, ok := recurrence(e.Event.Data.Interval, next.UTC()); ok {
			ve.AddRrule(rule)
		}
		written++
	}

	if err := out.SerializeTo(w); err != nil {
		return 0, fmt.Errorf("write calendar: %w", err)
	}
	log.Info("calendar exported", "events", written)
	return written, nil
}

// recurrence builds the RRULE of a calendar-pinned interval. The BY parts
// are taken from start, which is in UTC like DTSTART.
func recurrence(iv model.Interval, start time.Time) (string, bool) {
	opt := rrule.ROption{Dtstart: start}
	switch iv.(type) {
	case model.Daily:
		opt.Freq = rrule.DAILY
	case model.Weekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{weekday(start.Weekday())}
	case model.Monthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{start.Day()}
	case model.Annual:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(start.Month())}
		opt.Bymonthday = []int{start.Day()}
	default:
		return "", false
	}
	return opt.RRuleString(), true
}

func weekday(wd time.Weekday) rrule.Weekday {
	return [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}[wd]
}
