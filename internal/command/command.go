package command

import (
	"errors"
	"fmt"
	"time"

	"event-tracker/internal/model"
	"event-tracker/internal/store"
)

// Receiver is what a command is applied to: a DataReceiver or a
// ViewReceiver.
type Receiver any

// DataReceiver exposes the event store of a session.
type DataReceiver interface {
	Events() *store.EventStore
	// Now is the time of the current interaction cycle.
	Now() time.Time
}

// ViewReceiver controls how events are presented.
type ViewReceiver interface {
	Mode() Mode
	SetMode(Mode)
}

// Target names the receiver kind a command accepts.
type Target uint8

const (
	TargetData Target = iota
	TargetView
)

func (t Target) String() string {
	if t == TargetView {
		return "view"
	}
	return "data"
}

// Inverse undoes one applied command. It is run against the same receiver
// kind the command was applied to.
type Inverse func(Receiver) error

// Command is a reversible operation.
type Command interface {
	fmt.Stringer
	Target() Target
	// Apply mutates r and returns the inverse of what was applied. A nil
	// inverse means nothing needs undoing. On error the inverse, when
	// non-nil, reverts the part that was applied before the failure.
	Apply(r Receiver) (Inverse, error)
}

// ErrInvalidReceiver matches every InvalidReceiverError.
var ErrInvalidReceiver = errors.New("invalid receiver")

// InvalidReceiverError is returned when a command is applied to a receiver
// it does not accept. The receiver is left untouched.
type InvalidReceiverError struct {
	Command  string
	Receiver string
}

func (e *InvalidReceiverError) Error() string {
	return fmt.Sprintf("%s cannot be applied to %s", e.Command, e.Receiver)
}

func (e *InvalidReceiverError) Is(target error) bool { return target == ErrInvalidReceiver }

// EventNotFoundError is returned when a command names a uid that is not in
// the store.
type EventNotFoundError struct {
	Uid model.Uid
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("event %d not found", e.Uid)
}

func dataReceiver(c Command, r Receiver) (DataReceiver, error) {
	d, ok := r.(DataReceiver)
	if !ok {
		return nil, &InvalidReceiverError{Command: c.String(), Receiver: fmt.Sprintf("%T", r)}
	}
	return d, nil
}

func viewReceiver(c Command, r Receiver) (ViewReceiver, error) {
	v, ok := r.(ViewReceiver)
	if !ok {
		return nil, &InvalidReceiverError{Command: c.String(), Receiver: fmt.Sprintf("%T", r)}
	}
	return v, nil
}

// inverseOn adapts an undo step over the store into an Inverse.
func inverseOn(name string, undo func(*store.EventStore) error) Inverse {
	return func(r Receiver) error {
		d, ok := r.(DataReceiver)
		if !ok {
			return &InvalidReceiverError{Command: "undo " + name, Receiver: fmt.Sprintf("%T", r)}
		}
		return undo(d.Events())
	}
}
