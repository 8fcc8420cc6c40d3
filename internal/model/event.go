package model

import (
	"fmt"
	"strconv"
	"time"
)

// Uid identifies a tracked event inside one store.
type Uid uint

func (u Uid) String() string { return strconv.FormatUint(uint64(u), 10) }

// EventData is what the user registered. It is replaced as a whole, never
// edited in place.
type EventData struct {
	Text     string
	Interval Interval
	// Stacks lets repeated triggers accumulate while the event is triggered.
	Stacks bool
}

// NewEventData returns a non-stacking event.
func NewEventData(text string, iv Interval) EventData {
	return EventData{Text: text, Interval: iv}
}

func (d EventData) String() string {
	stacking := "re-trigger overrides"
	if d.Stacks {
		stacking = "re-trigger stacks"
	}
	return fmt.Sprintf("%q, %s (%s)", d.Text, d.Interval.Describe(), stacking)
}

// TrackedEvent pairs an event with its lifecycle status.
type TrackedEvent struct {
	Data   EventData
	Status Status
}

// NewTrackedEvent returns the event dormant since now.
func NewTrackedEvent(data EventData, now time.Time) TrackedEvent {
	return TrackedEvent{Data: data, Status: NewStatus(now)}
}

// Clone copies the mutable parts of the event.
func (e TrackedEvent) Clone() TrackedEvent {
	e.Status = e.Status.Clone()
	return e
}

func (e TrackedEvent) Text() string { return e.Data.Text }

func (e TrackedEvent) IsTriggered() bool { return e.Status.IsTriggered() }

func (e TrackedEvent) IsDone() bool { return e.Status.IsDone() }
