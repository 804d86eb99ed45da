package geoviz

import "time"

// Config holds the process-wide tunables of a map view. It is an
// explicit value with a defaulting constructor; there is no implicit
// module state besides the logger.
type Config struct {
	// DoubleClickInterval is how long a single click is held before
	// dispatch so the second click of a double-click sequence can
	// cancel it. Zero or negative disables the hold: single clicks
	// dispatch immediately. Matches the host toolkit's double-click
	// interval in practice.
	DoubleClickInterval time.Duration

	// MotionRateLimit caps dispatched mouse-move events per second;
	// excess motion is dropped. Zero or negative means unlimited.
	MotionRateLimit float64

	// SnapshotPoolSize is the per-size cap of retained background
	// snapshots in the pixmap pool. Zero means unlimited.
	SnapshotPoolSize int
}

// DefaultConfig returns the defaults used by NewMapView.
func DefaultConfig() Config {
	return Config{
		DoubleClickInterval: 250 * time.Millisecond,
		MotionRateLimit:     60,
		SnapshotPoolSize:    8,
	}
}
