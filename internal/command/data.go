package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"event-tracker/internal/model"
	"event-tracker/internal/store"
)

// Create registers a new event under the next free uid.
type Create struct {
	Data model.EventData
}

func (c Create) String() string { return fmt.Sprintf("create(%s)", c.Data) }
func (Create) Target() Target   { return TargetData }

func (c Create) Apply(r Receiver) (Inverse, error) {
	d, err := dataReceiver(c, r)
	if err != nil {
		return nil, err
	}
	uid := d.Events().Insert(model.NewTrackedEvent(c.Data, d.Now()))
	return inverseOn(c.String(), func(s *store.EventStore) error {
		if _, err := s.Remove(uid); err != nil {
			return &EventNotFoundError{Uid: uid}
		}
		return nil
	}), nil
}

type removed struct {
	uid   model.Uid
	event model.TrackedEvent
}

// Remove deletes events. The first missing uid stops the command; events
// removed before it stay removed and the returned inverse restores them.
type Remove struct {
	Uids []model.Uid
}

func (c Remove) String() string { return fmt.Sprintf("remove(%s)", joinUids(c.Uids)) }
func (Remove) Target() Target   { return TargetData }

func (c Remove) Apply(r Receiver) (Inverse, error) {
	d, err := dataReceiver(c, r)
	if err != nil {
		return nil, err
	}
	var done []removed
	restore := func() Inverse {
		if len(done) == 0 {
			return nil
		}
		return inverseOn(c.String(), func(s *store.EventStore) error {
			var errs []error
			for _, rm := range slices.Backward(done) {
				errs = append(errs, s.Add(rm.uid, rm.event))
			}
			return errors.Join(errs...)
		})
	}
	for _, uid := range c.Uids {
		ev, err := d.Events().Remove(uid)
		if err != nil {
			return restore(), &EventNotFoundError{Uid: uid}
		}
		done = append(done, removed{uid: uid, event: ev})
	}
	return restore(), nil
}

// Alter replaces the data of an event. The status is kept and the event
// moves to the next free uid after the old one is removed.
type Alter struct {
	Uid  model.Uid
	Data model.EventData
}

func (c Alter) String() string { return fmt.Sprintf("alter(%d, %s)", c.Uid, c.Data) }
func (Alter) Target() Target   { return TargetData }

func (c Alter) Apply(r Receiver) (Inverse, error) {
	d, err := dataReceiver(c, r)
	if err != nil {
		return nil, err
	}
	events := d.Events()
	old, err := events.Remove(c.Uid)
	if err != nil {
		return nil, &EventNotFoundError{Uid: c.Uid}
	}
	newUid := events.Insert(model.TrackedEvent{Data: c.Data, Status: old.Status.Clone()})
	return inverseOn(c.String(), func(s *store.EventStore) error {
		if _, err := s.Remove(newUid); err != nil {
			return &EventNotFoundError{Uid: newUid}
		}
		return s.Add(c.Uid, old)
	}), nil
}

type snapshot struct {
	uid    model.Uid
	status model.Status
}

func restoreStatuses(name string, snaps []snapshot) Inverse {
	return inverseOn(name, func(s *store.EventStore) error {
		var errs []error
		for _, snap := range slices.Backward(snaps) {
			ev, err := s.GetMut(snap.uid)
			if err != nil {
				errs = append(errs, &EventNotFoundError{Uid: snap.uid})
				continue
			}
			ev.Status = snap.status
		}
		return errors.Join(errs...)
	})
}

// Trigger marks an event due now regardless of its schedule.
type Trigger struct {
	Uid model.Uid
}

func (c Trigger) String() string { return fmt.Sprintf("trigger(%d)", c.Uid) }
func (Trigger) Target() Target   { return TargetData }

func (c Trigger) Apply(r Receiver) (Inverse, error) {
	d, err := dataReceiver(c, r)
	if err != nil {
		return nil, err
	}
	ev, err := d.Events().GetMut(c.Uid)
	if err != nil {
		return nil, &EventNotFoundError{Uid: c.Uid}
	}
	snap := snapshot{uid: c.Uid, status: ev.Status.Clone()}
	ev.Status.Trigger(d.Now())
	return restoreStatuses(c.String(), []snapshot{snap}), nil
}

// Complete finishes events. Events counted from their last completion are
// completed; periodic events skip their next occurrence. The first missing
// uid stops the command like Remove.
type Complete struct {
	Uids []model.Uid
}

func (c Complete) String() string { return fmt.Sprintf("complete(%s)", joinUids(c.Uids)) }
func (Complete) Target() Target   { return TargetData }

func (c Complete) Apply(r Receiver) (Inverse, error) {
	d, err := dataReceiver(c, r)
	if err != nil {
		return nil, err
	}
	now := d.Now()
	var snaps []snapshot
	undo := func() Inverse {
		if len(snaps) == 0 {
			return nil
		}
		return restoreStatuses(c.String(), snaps)
	}
	for _, uid := range c.Uids {
		ev, err := d.Events().GetMut(uid)
		if err != nil {
			return undo(), &EventNotFoundError{Uid: uid}
		}
		snaps = append(snaps, snapshot{uid: uid, status: ev.Status.Clone()})
		if model.IsPeriodic(ev.Data.Interval) {
			ev.Status.Skip(now)
		} else {
			ev.Status.Complete(now)
		}
	}
	return undo(), nil
}

// Refresh changes nothing. It is what an empty input line resolves to, so
// the cycle still updates and redraws.
type Refresh struct{}

func (Refresh) String() string { return "refresh" }
func (Refresh) Target() Target { return TargetData }

func (c Refresh) Apply(r Receiver) (Inverse, error) {
	if _, err := dataReceiver(c, r); err != nil {
		return nil, err
	}
	return func(Receiver) error { return nil }, nil
}

func joinUids(uids []model.Uid) string {
	parts := make([]string, len(uids))
	for i, uid := range uids {
		parts[i] = uid.String()
	}
	return strings.Join(parts, ",")
}
