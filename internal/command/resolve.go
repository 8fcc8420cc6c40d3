package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"event-tracker/internal/model"
)

// Action is what a resolved input line asks the session to do.
type Action uint8

const (
	ActionApply Action = iota
	ActionUndo
	ActionExit
)

// Resolution is a parsed input line. Command is set for ActionApply only.
type Resolution struct {
	Action  Action
	Command Command
}

// Key documents one input form.
type Key struct {
	Name  string
	Usage string
	Desc  string
}

// Keys lists the accepted input forms in display order.
var Keys = []Key{
	{"<id>...", "<id> [<id>...]", "complete events (periodic ones skip their next occurrence)"},
	{"create", "create|c [stack] <interval> -- <text>", "register an event"},
	{"rm", "rm <id> [<id>...]", "remove events"},
	{"alter", "alter|a <id> [stack] <interval> -- <text>", "replace an event's text and interval"},
	{"trigger", "trigger|trig|t <id>", "trigger an event now"},
	{"show", "show|s", "list all events"},
	{"hide", "hide|h", "list only events that need attention"},
	{"undo", "undo|u", "revert the last command"},
	{"exit", "exit|quit|q", "leave"},
}

// ErrEmptyText is returned for create or alter without event text.
var ErrEmptyText = errors.New("event text is empty")

// Resolve parses one input line. Display ids index into visible, the uids
// in the order they were last shown.
func Resolve(line string, visible []model.Uid) (Resolution, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return apply(Refresh{}), nil
	}
	head, rest := strings.ToLower(fields[0]), fields[1:]

	if _, err := strconv.Atoi(head); err == nil {
		return resolveComplete(fields, visible)
	}

	switch head {
	case "create", "c":
		data, err := parseEventData(line, rest)
		if err != nil {
			return Resolution{}, fmt.Errorf("create: %w", err)
		}
		return apply(Create{Data: data}), nil
	case "rm":
		if len(rest) == 0 {
			return Resolution{}, errors.New("rm: no ids given")
		}
		uids := make([]model.Uid, 0, len(rest))
		for _, raw := range rest {
			uid, err := lookup(raw, visible)
			if err != nil {
				return Resolution{}, fmt.Errorf("rm: %w", err)
			}
			uids = append(uids, uid)
		}
		return apply(Remove{Uids: uids}), nil
	case "alter", "a":
		if len(rest) == 0 {
			return Resolution{}, errors.New("alter: no id given")
		}
		uid, err := lookup(rest[0], visible)
		if err != nil {
			return Resolution{}, fmt.Errorf("alter: %w", err)
		}
		data, err := parseEventData(line, rest[1:])
		if err != nil {
			return Resolution{}, fmt.Errorf("alter: %w", err)
		}
		return apply(Alter{Uid: uid, Data: data}), nil
	case "trigger", "trig", "t":
		if len(rest) != 1 {
			return Resolution{}, errors.New("trigger: expected exactly one id")
		}
		uid, err := lookup(rest[0], visible)
		if err != nil {
			return Resolution{}, fmt.Errorf("trigger: %w", err)
		}
		return apply(Trigger{Uid: uid}), nil
	case "show", "s":
		return apply(Show()), nil
	case "hide", "h":
		return apply(Hide()), nil
	case "undo", "u":
		return Resolution{Action: ActionUndo}, nil
	case "exit", "quit", "q":
		return Resolution{Action: ActionExit}, nil
	}
	return Resolution{}, fmt.Errorf("unknown command %q", fields[0])
}

func apply(c Command) Resolution {
	return Resolution{Action: ActionApply, Command: c}
}

// resolveComplete maps every display id it can. Ids that are not shown
// are dropped.
func resolveComplete(fields []string, visible []model.Uid) (Resolution, error) {
	var uids []model.Uid
	for _, raw := range fields {
		if uid, err := lookup(raw, visible); err == nil {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return Resolution{}, fmt.Errorf("no shown event matches %s", strings.Join(fields, " "))
	}
	return apply(Complete{Uids: uids}), nil
}

func lookup(raw string, visible []model.Uid) (model.Uid, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", raw, err)
	}
	if id < 0 || id >= len(visible) {
		return 0, fmt.Errorf("id %d is not shown", id)
	}
	return visible[id], nil
}

// parseEventData reads "[stack] <interval> -- <text>". tokens are the
// fields after the command word (and id); the text is taken verbatim from
// line after the separator.
func parseEventData(line string, tokens []string) (model.EventData, error) {
	sep := strings.Index(line, " -- ")
	if sep < 0 {
		if strings.HasSuffix(strings.TrimSpace(line), " --") {
			return model.EventData{}, ErrEmptyText
		}
		return model.EventData{}, errors.New(`missing " -- " before the event text`)
	}
	text := strings.TrimSpace(line[sep+len(" -- "):])
	if text == "" {
		return model.EventData{}, ErrEmptyText
	}

	var spec []string
	for _, tok := range tokens {
		if tok == "--" {
			break
		}
		spec = append(spec, tok)
	}
	stacks := false
	if len(spec) > 0 && strings.EqualFold(spec[0], "stack") {
		stacks, spec = true, spec[1:]
	}
	iv, err := model.ParseInterval(strings.Join(spec, " "))
	if err != nil {
		return model.EventData{}, err
	}
	return model.EventData{Text: text, Interval: iv, Stacks: stacks}, nil
}
