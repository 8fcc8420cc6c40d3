package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"event-tracker/internal/model"
)

// EventStore is an ordered map from Uid to TrackedEvent.
type EventStore struct {
	events map[model.Uid]*model.TrackedEvent
}

func New() *EventStore {
	return &EventStore{events: make(map[model.Uid]*model.TrackedEvent)}
}

// Len returns the number of stored events.
func (s *EventStore) Len() int { return len(s.events) }

// Uids returns the keys in ascending order.
func (s *EventStore) Uids() []model.Uid {
	return slices.Sorted(maps.Keys(s.events))
}

// Add stores ev under uid. An occupied uid is never overwritten.
func (s *EventStore) Add(uid model.Uid, ev model.TrackedEvent) error {
	if old, ok := s.events[uid]; ok {
		return &ItemAlreadyExistsError{Uid: uid, Existing: old.Clone(), Incoming: ev}
	}
	stored := ev.Clone()
	s.events[uid] = &stored
	return nil
}

// MustAdd is Add for uids allocated by the store itself. A collision means
// the in-memory state is corrupt, so it panics.
func (s *EventStore) MustAdd(uid model.Uid, ev model.TrackedEvent) {
	if err := s.Add(uid, ev); err != nil {
		panic(err)
	}
}

// Insert stores ev under the next free uid and returns it.
func (s *EventStore) Insert(ev model.TrackedEvent) model.Uid {
	uid := s.NextFreeUid()
	s.MustAdd(uid, ev)
	return uid
}

// Remove deletes and returns the event stored under uid.
func (s *EventStore) Remove(uid model.Uid) (model.TrackedEvent, error) {
	ev, ok := s.events[uid]
	if !ok {
		return model.TrackedEvent{}, &NotFoundError{Uid: uid}
	}
	delete(s.events, uid)
	return *ev, nil
}

// GetMut returns the stored event for in-place mutation.
func (s *EventStore) GetMut(uid model.Uid) (*model.TrackedEvent, error) {
	ev, ok := s.events[uid]
	if !ok {
		return nil, &NotFoundError{Uid: uid}
	}
	return ev, nil
}

// Get returns a copy of the stored event.
func (s *EventStore) Get(uid model.Uid) (model.TrackedEvent, bool) {
	ev, ok := s.events[uid]
	if !ok {
		return model.TrackedEvent{}, false
	}
	return ev.Clone(), true
}

// NextFreeUid is one past the highest uid in use, or 0 when empty. Uids
// below the maximum freed by removals are not reused.
func (s *EventStore) NextFreeUid() model.Uid {
	if len(s.events) == 0 {
		return 0
	}
	return slices.Max(slices.Collect(maps.Keys(s.events))) + 1
}

// Entry is a uid with a copy of its event.
type Entry struct {
	Uid   model.Uid
	Event model.TrackedEvent
}

// Entries returns copies of all events ordered by uid.
func (s *EventStore) Entries() []Entry {
	out := make([]Entry, 0, len(s.events))
	for _, uid := range s.Uids() {
		out = append(out, Entry{Uid: uid, Event: s.events[uid].Clone()})
	}
	return out
}

// UpdateAll runs the scheduling update on every event at now. Events are
// independent, so one failing event does not stop the others; the failures
// are joined into the returned error. It returns the uids that became newly
// triggered.
func (s *EventStore) UpdateAll(cal model.Calendar, now time.Time) ([]model.Uid, error) {
	var (
		triggered []model.Uid
		errs      []error
	)
	for _, uid := range s.Uids() {
		newly, err := s.events[uid].Update(cal, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("update event %d: %w", uid, err))
			continue
		}
		if newly {
			triggered = append(triggered, uid)
		}
	}
	return triggered, errors.Join(errs...)
}

// Clone returns a deep copy of the store.
func (s *EventStore) Clone() *EventStore {
	out := New()
	for uid, ev := range s.events {
		cp := ev.Clone()
		out.events[uid] = &cp
	}
	return out
}
