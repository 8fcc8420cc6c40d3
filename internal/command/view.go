package command

import "fmt"

// Mode selects which events a view lists.
type Mode uint8

const (
	// Standard lists triggered events and those about to trigger.
	Standard Mode = iota
	// Extended lists every event.
	Extended
)

func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Extended:
		return "extended"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// SetMode switches the view mode. Show and Hide are its two instances.
type SetMode struct {
	To Mode
}

// Show lists all events.
func Show() SetMode { return SetMode{To: Extended} }

// Hide lists only events that need attention.
func Hide() SetMode { return SetMode{To: Standard} }

func (c SetMode) String() string { return "view(" + c.To.String() + ")" }
func (SetMode) Target() Target   { return TargetView }

func (c SetMode) Apply(r Receiver) (Inverse, error) {
	v, err := viewReceiver(c, r)
	if err != nil {
		return nil, err
	}
	prev := v.Mode()
	v.SetMode(c.To)
	return func(r Receiver) error {
		v, err := viewReceiver(SetMode{To: prev}, r)
		if err != nil {
			return err
		}
		v.SetMode(prev)
		return nil
	}, nil
}
