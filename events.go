package geoviz

import "time"

// EventKind identifies an event category. Each category has its own
// callback registry, sticky-modifier state, and dispatch queue.
type EventKind int

const (
	// KindClick fires on mouse button presses.
	KindClick EventKind = iota
	// KindPick fires after a click when a spatial index is available;
	// the event carries the pick result for the click position.
	KindPick
	// KindMove fires on pointer motion, subject to rate limiting.
	KindMove
	// KindKey fires on key presses.
	KindKey
)

// String returns the category name used in logs and callback ids.
func (k EventKind) String() string {
	switch k {
	case KindClick:
		return "click"
	case KindPick:
		return "pick"
	case KindMove:
		return "move"
	case KindKey:
		return "key"
	default:
		return "unknown"
	}
}

// MouseButton identifies which pointer button produced a click.
type MouseButton int

const (
	// ButtonAny matches every button in a CallbackSpec.
	ButtonAny MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Event is the payload delivered to callbacks. It is a tagged union
// over the event categories; fields beyond Kind and Time are present
// per category as documented.
type Event struct {
	// Kind selects which optional fields are meaningful.
	Kind EventKind

	// Pos is the pointer position in plot coordinates.
	// Present for click, pick, and move events.
	Pos Point

	// Button is the pressed mouse button. Present for click and pick.
	Button MouseButton

	// DoubleClick marks the second click of a double-click sequence.
	// Present for click events.
	DoubleClick bool

	// Key is the pressed key name. Present for key events.
	Key string

	// Modifier is the modifier the matched callback was registered
	// with, or "" when none was required. Set at dispatch time.
	Modifier string

	// Pick is the nearest-neighbor result for the click position.
	// Present for pick events only; may be empty, never nil.
	Pick *PickResult

	// Time is the host toolkit's event timestamp.
	Time time.Time
}
