package store

import (
	"fmt"

	"event-tracker/internal/model"
)

// ItemAlreadyExistsError is returned when adding under an occupied uid. It
// carries both the stored and the rejected event.
type ItemAlreadyExistsError struct {
	Uid      model.Uid
	Existing model.TrackedEvent
	Incoming model.TrackedEvent
}

func (e *ItemAlreadyExistsError) Error() string {
	return fmt.Sprintf("cannot insert event with uid %d: %q would replace %q",
		e.Uid, e.Incoming.Data.Text, e.Existing.Data.Text)
}

// NotFoundError is returned when no event is stored under a uid.
type NotFoundError struct {
	Uid model.Uid
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event not found for uid %d", e.Uid)
}
