package model

import (
	"fmt"
	"slices"
	"time"
)

// Phase is the lifecycle position of a tracked event.
type Phase uint8

const (
	// Dormant: registered, never triggered or completed.
	Dormant Phase = iota
	// Triggered: due and waiting for completion.
	Triggered
	// Completed: done, waiting for the next trigger.
	Completed
	// Skipped: the next periodic occurrence is suppressed.
	Skipped
)

func (p Phase) String() string {
	switch p {
	case Dormant:
		return "dormant"
	case Triggered:
		return "triggered"
	case Completed:
		return "completed"
	case Skipped:
		return "skip"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// ParsePhase reads the names produced by Phase.String.
func ParsePhase(raw string) (Phase, error) {
	for _, p := range []Phase{Dormant, Triggered, Completed, Skipped} {
		if raw == p.String() {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", raw)
}

// StatusKind is a phase and, except for Triggered, the time it was entered.
type StatusKind struct {
	Phase Phase
	At    time.Time
}

// Equal compares phases only; Dormant(t1) equals Dormant(t2).
func (k StatusKind) Equal(other StatusKind) bool {
	return k.Phase == other.Phase
}

func (k StatusKind) String() string {
	if k.Phase == Triggered {
		return k.Phase.String()
	}
	return fmt.Sprintf("%s since %s", k.Phase, k.At.Format("2006-01-02 15:04"))
}

// Status holds the lifecycle of one event. TriggerTimes is non-empty exactly
// when the phase is Triggered.
type Status struct {
	TriggerTimes []time.Time
	Kind         StatusKind
}

// NewStatus returns the default status: dormant since now.
func NewStatus(now time.Time) Status {
	return Status{Kind: StatusKind{Phase: Dormant, At: now}}
}

func (s Status) IsTriggered() bool { return s.Kind.Phase == Triggered }

// IsDone reports whether the status is exactly Completed.
func (s Status) IsDone() bool { return s.Kind.Phase == Completed }

func (s Status) IsSkipped() bool { return s.Kind.Phase == Skipped }

// Trigger moves the status into Triggered and reports whether it was newly
// triggered. A pending skip resolves to Completed instead, and an already
// triggered status only records another trigger time.
func (s *Status) Trigger(now time.Time) bool {
	switch s.Kind.Phase {
	case Dormant, Completed:
		s.Kind = StatusKind{Phase: Triggered}
		s.TriggerTimes = []time.Time{now}
		return true
	case Skipped:
		s.Kind = StatusKind{Phase: Completed, At: now}
		s.TriggerTimes = nil
		return false
	default:
		s.TriggerTimes = append(s.TriggerTimes, now)
		return false
	}
}

// Complete marks the status completed at now and clears the trigger history.
// It reports whether the status was already Completed.
func (s *Status) Complete(now time.Time) bool {
	already := s.Kind.Phase == Completed
	s.TriggerTimes = nil
	s.Kind = StatusKind{Phase: Completed, At: now}
	return already
}

// Skip suppresses the next occurrence and clears the trigger history.
func (s *Status) Skip(now time.Time) {
	s.TriggerTimes = nil
	s.Kind = StatusKind{Phase: Skipped, At: now}
}

// PrevTriggerTime returns the latest trigger time, if any.
func (s Status) PrevTriggerTime() (time.Time, bool) {
	if len(s.TriggerTimes) == 0 {
		return time.Time{}, false
	}
	return s.TriggerTimes[len(s.TriggerTimes)-1], true
}

// Anchor is the time the next occurrence is counted from.
func (s Status) Anchor() (time.Time, error) {
	if t, ok := s.PrevTriggerTime(); ok {
		return t, nil
	}
	if s.Kind.Phase == Triggered {
		return time.Time{}, fmt.Errorf("triggered without trigger times: %w", ErrInvariant)
	}
	return s.Kind.At, nil
}

// Clone returns a copy that shares no memory with s.
func (s Status) Clone() Status {
	s.TriggerTimes = slices.Clone(s.TriggerTimes)
	return s
}

func (s Status) String() string {
	if s.Kind.Phase == Triggered && len(s.TriggerTimes) > 1 {
		return fmt.Sprintf("triggered x%d", len(s.TriggerTimes))
	}
	return s.Kind.String()
}
