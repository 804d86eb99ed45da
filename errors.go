package geoviz

import "errors"

// Sentinel errors returned by the picking and callback APIs.
// Match with errors.Is; wrapped forms carry call-site context.
var (
	// ErrEmptyDataset is returned when a spatial index is built over a
	// dataset with no finite coordinates. Recoverable by re-setting data.
	ErrEmptyDataset = errors.New("geoviz: empty dataset")

	// ErrIndexNotReady is returned when Pick is called before any data
	// has been plotted. This is a programmer error, surfaced immediately.
	ErrIndexNotReady = errors.New("geoviz: spatial index not ready")

	// ErrCallbackNotFound is returned when removing a callback id that
	// is not registered. Non-fatal; callers typically just log it.
	ErrCallbackNotFound = errors.New("geoviz: callback not found")
)
