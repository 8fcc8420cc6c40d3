package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-tracker/internal/model"
	"event-tracker/internal/store"
)

// Repository persists a whole event store.
type Repository interface {
	Load(ctx context.Context) (*store.EventStore, error)
	Store(ctx context.Context, events *store.EventStore) error
}

// LoadErrorKind tells a missing store apart from an unreadable one.
type LoadErrorKind uint8

const (
	NotFound LoadErrorKind = iota
	Malformed
)

func (k LoadErrorKind) String() string {
	if k == NotFound {
		return "not found"
	}
	return "malformed"
}

// LoadError is returned by Load. Raw holds the offending content for
// Malformed stores so the caller can show or back it up.
type LoadError struct {
	Kind  LoadErrorKind
	Path  string
	Cause error
	Raw   string
}

func (e *LoadError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("load %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// IsNotFound reports whether err is a LoadError of kind NotFound.
func IsNotFound(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == NotFound
}

// IsMalformed reports whether err is a LoadError of kind Malformed.
func IsMalformed(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == Malformed
}

// StoreError is returned by Store.
type StoreError struct {
	Path  string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Path, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// record is the storage form of one tracked event shared by both backends.
// Times are kept to whole seconds.
type record struct {
	Uid          uint
	Text         string
	Interval     string
	Stacks       bool
	Phase        string
	At           *time.Time
	TriggerTimes []time.Time
}

func toRecord(uid model.Uid, ev model.TrackedEvent) record {
	r := record{
		Uid:      uint(uid),
		Text:     ev.Data.Text,
		Interval: ev.Data.Interval.String(),
		Stacks:   ev.Data.Stacks,
		Phase:    ev.Status.Kind.Phase.String(),
	}
	if ev.Status.Kind.Phase != model.Triggered {
		at := ev.Status.Kind.At.Truncate(time.Second)
		r.At = &at
	}
	for _, t := range ev.Status.TriggerTimes {
		r.TriggerTimes = append(r.TriggerTimes, t.Truncate(time.Second))
	}
	return r
}

func (r record) toEvent() (model.Uid, model.TrackedEvent, error) {
	iv, err := model.ParseInterval(r.Interval)
	if err != nil {
		return 0, model.TrackedEvent{}, fmt.Errorf("event %d: %w", r.Uid, err)
	}
	phase, err := model.ParsePhase(r.Phase)
	if err != nil {
		return 0, model.TrackedEvent{}, fmt.Errorf("event %d: %w", r.Uid, err)
	}
	if (phase == model.Triggered) != (len(r.TriggerTimes) > 0) {
		return 0, model.TrackedEvent{}, fmt.Errorf("event %d: %s with %d trigger times: %w",
			r.Uid, phase, len(r.TriggerTimes), model.ErrInvariant)
	}
	kind := model.StatusKind{Phase: phase}
	if phase != model.Triggered {
		if r.At == nil {
			return 0, model.TrackedEvent{}, fmt.Errorf("event %d: %s without a time: %w", r.Uid, phase, model.ErrInvariant)
		}
		kind.At = *r.At
	}
	ev := model.TrackedEvent{
		Data:   model.EventData{Text: r.Text, Interval: iv, Stacks: r.Stacks},
		Status: model.Status{TriggerTimes: r.TriggerTimes, Kind: kind},
	}
	return model.Uid(r.Uid), ev, nil
}

// fromRecords rebuilds a store. Duplicate uids make the input malformed.
func fromRecords(records []record) (*store.EventStore, error) {
	events := store.New()
	for _, r := range records {
		uid, ev, err := r.toEvent()
		if err != nil {
			return nil, err
		}
		if err := events.Add(uid, ev); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func toRecords(events *store.EventStore) []record {
	out := make([]record, 0, events.Len())
	for _, e := range events.Entries() {
		out = append(out, toRecord(e.Uid, e.Event))
	}
	return out
}
