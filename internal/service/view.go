package service

import (
	"cmp"
	"slices"
	"time"

	"event-tracker/internal/command"
	"event-tracker/internal/log"
	"event-tracker/internal/model"
	"event-tracker/internal/store"
)

// dailyCutoff separates daily events from the rest in listings.
const dailyCutoff = 25 * time.Hour

// Row is one listed event. ID is the display id the user types.
type Row struct {
	ID        int
	Uid       model.Uid
	Event     model.TrackedEvent
	Next      time.Time
	Scheduled bool
	// Err is set when the next due time could not be computed.
	Err   error
	Daily bool
}

// View is the presentation state of a session. It implements
// command.ViewReceiver.
type View struct {
	mode      command.Mode
	lookAhead float64
}

// NewView starts in extended mode. lookAhead is the fraction of an event's
// period before its due time during which standard mode lists it.
func NewView(lookAhead float64) *View {
	return &View{mode: command.Extended, lookAhead: lookAhead}
}

func (v *View) Mode() command.Mode { return v.mode }

func (v *View) SetMode(m command.Mode) { v.mode = m }

// Rows lists the events visible at now: daily events first, each group
// sorted by next due time. Display ids follow that order.
func (v *View) Rows(events *store.EventStore, cal model.Calendar, now time.Time) []Row {
	var rows []Row
	for _, e := range events.Entries() {
		row := Row{Uid: e.Uid, Event: e.Event}
		row.Next, row.Scheduled, row.Err = e.Event.NextDue(cal)
		if row.Err != nil {
			log.Warn("cannot schedule event", "uid", e.Uid, "err", row.Err)
		}
		if d, ok := e.Event.Data.Interval.Heuristic(); ok && d < dailyCutoff {
			row.Daily = true
		}
		if v.mode == command.Standard && !v.attention(e.Event, cal, now) {
			continue
		}
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, compareRows)
	for i := range rows {
		rows[i].ID = i
	}
	return rows
}

// attention reports whether standard mode lists ev: it is triggered, or it
// is not skipped and due within the look-ahead fraction of its period.
func (v *View) attention(ev model.TrackedEvent, cal model.Calendar, now time.Time) bool {
	if ev.IsTriggered() {
		return true
	}
	if ev.Status.IsSkipped() {
		return false
	}
	frac, ok, err := ev.FractionRemaining(cal, now)
	return err == nil && ok && frac < v.lookAhead
}

// compareRows orders daily before other events, then unscheduled
// (triggered) before scheduled ones, scheduled ones by next due time and
// unscheduled ones by period length. Rows that failed to schedule go last.
func compareRows(a, b Row) int {
	if a.Daily != b.Daily {
		if a.Daily {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(rank(a), rank(b)); c != 0 {
		return c
	}
	if a.Scheduled {
		return a.Next.Compare(b.Next)
	}
	ha, _ := a.Event.Data.Interval.Heuristic()
	hb, _ := b.Event.Data.Interval.Heuristic()
	return cmp.Compare(ha, hb)
}

func rank(r Row) int {
	switch {
	case r.Err != nil:
		return 2
	case r.Scheduled:
		return 1
	default:
		return 0
	}
}

// Uids returns the uids of rows in display order.
func Uids(rows []Row) []model.Uid {
	out := make([]model.Uid, len(rows))
	for i, r := range rows {
		out[i] = r.Uid
	}
	return out
}
