package geoviz

import "time"

// Option configures a MapView during creation.
//
// Example:
//
//	mv := geoviz.NewMapView(canvas,
//	    geoviz.WithMotionRateLimit(120),
//	    geoviz.WithDoubleClickInterval(300*time.Millisecond),
//	)
type Option func(*Config)

// WithConfig replaces the entire configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithDoubleClickInterval sets how long single clicks are held for
// double-click suppression.
func WithDoubleClickInterval(d time.Duration) Option {
	return func(c *Config) {
		c.DoubleClickInterval = d
	}
}

// WithMotionRateLimit caps dispatched mouse-move events per second.
func WithMotionRateLimit(eventsPerSec float64) Option {
	return func(c *Config) {
		c.MotionRateLimit = eventsPerSec
	}
}

// WithSnapshotPoolSize sets the per-size cap of pooled background
// snapshots.
func WithSnapshotPoolSize(n int) Option {
	return func(c *Config) {
		c.SnapshotPoolSize = n
	}
}
