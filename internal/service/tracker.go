package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-tracker/internal/command"
	"event-tracker/internal/log"
	"event-tracker/internal/model"
	"event-tracker/internal/repository"
	"event-tracker/internal/store"
)

// Clock is the time source of a session.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

type undoEntry struct {
	label   string
	target  command.Target
	inverse command.Inverse
}

// Outcome is the result of one interaction cycle.
type Outcome struct {
	// Notice is a message for the user, empty when there is nothing to say.
	Notice string
	Exit   bool
	// Triggered lists events that became due during this cycle.
	Triggered []model.Uid
}

// Tracker owns the event store, the undo stack and the view of one session.
// It is the data receiver of commands. Not safe for concurrent use.
type Tracker struct {
	repo  repository.Repository
	cal   model.Calendar
	clock Clock
	view  *View

	events *store.EventStore
	undo   []undoEntry
	now    time.Time
	rows   []Row
}

func NewTracker(repo repository.Repository, cal model.Calendar, clock Clock, view *View) *Tracker {
	if clock == nil {
		clock = SystemClock
	}
	return &Tracker{
		repo:   repo,
		cal:    cal,
		clock:  clock,
		view:   view,
		events: store.New(),
	}
}

// Events implements command.DataReceiver.
func (t *Tracker) Events() *store.EventStore { return t.events }

// Now implements command.DataReceiver: the time of the current cycle.
func (t *Tracker) Now() time.Time { return t.now }

func (t *Tracker) View() *View { return t.view }

// UndoDepth is the number of commands that can be undone.
func (t *Tracker) UndoDepth() int { return len(t.undo) }

// Open loads the store. A missing store starts empty and is written right
// away; a malformed one is returned as a *repository.LoadError.
func (t *Tracker) Open(ctx context.Context) error {
	events, err := t.repo.Load(ctx)
	switch {
	case repository.IsNotFound(err):
		log.Warn("no event store found, starting empty", "err", err)
		events = store.New()
		if err := t.repo.Store(ctx, events); err != nil {
			return fmt.Errorf("create event store: %w", err)
		}
	case err != nil:
		return err
	}
	t.events = events
	log.Info("event store loaded", "events", events.Len())

	t.now = t.clock.Now()
	t.updateAll()
	t.refreshRows()
	return nil
}

// Reset replaces the persisted store with an empty one.
func (t *Tracker) Reset(ctx context.Context) error {
	t.events = store.New()
	t.undo = nil
	if err := t.repo.Store(ctx, t.events); err != nil {
		return fmt.Errorf("reset event store: %w", err)
	}
	log.Warn("event store reset")
	return nil
}

// Tick updates all events and persists the store without resolving any
// input. Scheduled digests use it so they do not add to the undo stack.
func (t *Tracker) Tick(ctx context.Context) (Outcome, error) {
	t.now = t.clock.Now()
	out := Outcome{Triggered: t.updateAll()}
	return out, t.flush(ctx, nil)
}

// Step runs one interaction cycle: update all events at one instant,
// resolve line against the ids last shown, apply it and persist the store.
// Input and command problems are reported in the Outcome notice; the error
// is reserved for persistence failures.
func (t *Tracker) Step(ctx context.Context, line string) (Outcome, error) {
	t.now = t.clock.Now()
	out := Outcome{Triggered: t.updateAll()}

	res, err := command.Resolve(line, Uids(t.rows))
	if err != nil {
		log.Debug("cannot resolve input", "line", line, "err", err)
		out.Notice = err.Error()
		return out, t.flush(ctx, nil)
	}

	var applied *undoEntry
	switch res.Action {
	case command.ActionExit:
		out.Exit = true
	case command.ActionUndo:
		out.Notice = t.Undo()
	case command.ActionApply:
		var notice string
		applied, notice = t.apply(res.Command)
		out.Notice = notice
	}

	if err := t.flush(ctx, applied); err != nil {
		return out, err
	}
	return out, nil
}

// apply runs c against its receiver and pushes the inverse. It returns the
// pushed entry, if any.
func (t *Tracker) apply(c command.Command) (*undoEntry, string) {
	inverse, err := c.Apply(t.receiver(c.Target()))
	var pushed *undoEntry
	if inverse != nil {
		t.undo = append(t.undo, undoEntry{label: c.String(), target: c.Target(), inverse: inverse})
		pushed = &t.undo[len(t.undo)-1]
	}
	if err != nil {
		log.Warn("command failed", "cmd", c, "err", err, "undoable", inverse != nil)
		return pushed, fmt.Sprintf("Could not apply %s: %v", c, err)
	}
	log.Info("command applied", "cmd", c)
	return pushed, ""
}

// Undo reverts the latest command and returns a notice for the user.
func (t *Tracker) Undo() string {
	if len(t.undo) == 0 {
		log.Info("undo requested with empty stack")
		return "Nothing to undo"
	}
	last := t.undo[len(t.undo)-1]
	t.undo = t.undo[:len(t.undo)-1]
	if err := last.inverse(t.receiver(last.target)); err != nil {
		log.Error("undo failed", err, "cmd", last.label)
		return fmt.Sprintf("Undo of %s failed: %v", last.label, err)
	}
	log.Info("command undone", "cmd", last.label)
	return "Undid " + last.label
}

func (t *Tracker) receiver(target command.Target) command.Receiver {
	if target == command.TargetView {
		return t.view
	}
	return t
}

// flush persists the store. When it fails, applied is reverted and popped
// so memory matches what is on disk.
func (t *Tracker) flush(ctx context.Context, applied *undoEntry) error {
	err := t.repo.Store(ctx, t.events)
	if err != nil && applied != nil {
		entry := *applied
		t.undo = t.undo[:len(t.undo)-1]
		if rerr := entry.inverse(t.receiver(entry.target)); rerr != nil {
			err = errors.Join(err, fmt.Errorf("revert %s: %w", entry.label, rerr))
		}
		log.Error("store failed, command reverted", err, "cmd", entry.label)
	}
	t.refreshRows()
	if err != nil {
		return fmt.Errorf("persist events: %w", err)
	}
	return nil
}

func (t *Tracker) updateAll() []model.Uid {
	triggered, err := t.events.UpdateAll(t.cal, t.now)
	if err != nil {
		log.Warn("some events could not be updated", "err", err)
	}
	for _, uid := range triggered {
		log.Info("event triggered", "uid", uid)
	}
	return triggered
}

func (t *Tracker) refreshRows() {
	t.rows = t.view.Rows(t.events, t.cal, t.now)
}

// Rows returns the listing of the last cycle.
func (t *Tracker) Rows() []Row { return t.rows }

// Render returns the listing of the last cycle as text.
func (t *Tracker) Render() string {
	return Render(t.view.Mode(), t.rows, t.now)
}

// Digest returns a short summary of the last cycle.
func (t *Tracker) Digest() string {
	return Summary(t.rows, t.now)
}
