package service

import (
	"fmt"
	"strings"
	"time"

	"event-tracker/internal/command"
)

// Render writes the listing for mode followed by the command keys.
func Render(mode command.Mode, rows []Row, now time.Time) string {
	var builder strings.Builder

	var daily, other []Row
	for _, r := range rows {
		if r.Daily {
			daily = append(daily, r)
		} else {
			other = append(other, r)
		}
	}

	if len(rows) == 0 {
		builder.WriteString(fmt.Sprintf("=== No Events (%s) ===\n", mode))
	}
	if len(daily) > 0 {
		builder.WriteString(fmt.Sprintf("=== Daily Events (%s) ===\n", mode))
		for _, r := range daily {
			builder.WriteString(formatRow(mode, r, now))
		}
	}
	if len(other) > 0 {
		if len(daily) > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(fmt.Sprintf("=== Events (%s) ===\n", mode))
		for _, r := range other {
			builder.WriteString(formatRow(mode, r, now))
		}
	}

	builder.WriteString("\n=== Commands ===\n")
	for _, k := range command.Keys {
		builder.WriteString(fmt.Sprintf("%-10s - %s\n", k.Name, k.Desc))
	}
	return builder.String()
}

func formatRow(mode command.Mode, r Row, now time.Time) string {
	mark := " "
	if r.Event.IsTriggered() {
		mark = "*"
	}

	if mode == command.Standard {
		if r.Event.IsTriggered() {
			return fmt.Sprintf("%s (%2d)   %s\n", mark, r.ID, r.Event.Text())
		}
		return fmt.Sprintf("  (%2d)   (%s) - (triggers %s)\n", r.ID, r.Event.Text(), when(r.Next, now))
	}

	next := fmt.Sprintf("%16s", "Not scheduled")
	switch {
	case r.Err != nil:
		next = fmt.Sprintf("%16s", "Unschedulable")
	case r.Scheduled:
		next = fmt.Sprintf("%-10s %-5s", r.Next.Format("Mon 2.1."), r.Next.Format("15:04"))
	}
	return fmt.Sprintf("%s (%2d) %s - %s (%s, current: %s)\n",
		mark, r.ID, next, r.Event.Text(), r.Event.Data.Interval.Describe(), r.Event.Status)
}

func when(t, now time.Time) string {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("today at 15:04")
	}
	return t.Format("on 02.01. at 15:04")
}

// Summary is a short digest of the events that need attention.
func Summary(rows []Row, now time.Time) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Digest %s\n", now.Format("2006-01-02 15:04")))

	var triggered, upcoming []Row
	for _, r := range rows {
		switch {
		case r.Event.IsTriggered():
			triggered = append(triggered, r)
		case r.Scheduled && r.Next.Sub(now) <= 24*time.Hour:
			upcoming = append(upcoming, r)
		}
	}

	builder.WriteString("\nTriggered\n")
	if len(triggered) == 0 {
		builder.WriteString("- nothing is due\n")
	}
	for _, r := range triggered {
		line := fmt.Sprintf("(%d) %s", r.ID, r.Event.Text())
		if n := len(r.Event.Status.TriggerTimes); n > 1 {
			line += fmt.Sprintf(" x%d", n)
		}
		builder.WriteString(line + "\n")
	}

	builder.WriteString("\nNext 24 hours\n")
	if len(upcoming) == 0 {
		builder.WriteString("- nothing scheduled\n")
	}
	for _, r := range upcoming {
		builder.WriteString(fmt.Sprintf("(%d) %s %s\n", r.ID, r.Event.Text(), when(r.Next, now)))
	}
	return strings.TrimSpace(builder.String())
}
