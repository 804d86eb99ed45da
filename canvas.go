package geoviz

import (
	"log/slog"
	"sync"
)

// Artist is a drawable object owned by the host toolkit. The blit
// manager calls Draw to render the artist into a snapshot or onto the
// front buffer; the artist decides what pixels that means.
type Artist interface {
	Draw(dst *Pixmap) error
}

// Canvas is the boundary to the host plotting toolkit. geoviz renders
// into pixmaps and hands the composed frame to the canvas; the canvas
// owns the actual screen surface and the event loop.
//
// Implementations are expected to be driven from the UI thread, matching
// the rest of the core.
type Canvas interface {
	// Size returns the drawable area in pixels.
	Size() (width, height int)

	// DPI returns the current device resolution. A DPI change
	// invalidates every cached background snapshot.
	DPI() float64

	// HasArtist reports whether the artist is still alive on the
	// canvas. Artists removed from the canvas without being
	// unregistered from the blit manager are skipped during redraw.
	HasArtist(a Artist) bool

	// Present pushes a composed frame to the screen surface.
	Present(frame *Pixmap)

	// RequestRedraw schedules an idle repaint with the host toolkit
	// (the draw_idle primitive). May coalesce multiple requests.
	RequestRedraw()
}

// MemoryCanvas is an in-memory Canvas implementation. It backs tests and
// headless rendering; adapters for real toolkits embed the same contract.
type MemoryCanvas struct {
	mu      sync.Mutex
	width   int
	height  int
	dpi     float64
	artists map[Artist]struct{}
	frame   *Pixmap
	redraws int
	logger  *slog.Logger
}

// NewMemoryCanvas creates a canvas with the given pixel size at 96 DPI.
func NewMemoryCanvas(width, height int) *MemoryCanvas {
	return &MemoryCanvas{
		width:   width,
		height:  height,
		dpi:     96,
		artists: make(map[Artist]struct{}),
	}
}

// Size returns the drawable area in pixels.
func (c *MemoryCanvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// DPI returns the current device resolution.
func (c *MemoryCanvas) DPI() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dpi
}

// SetDPI changes the device resolution. The blit manager notices the
// change on its next update and rebuilds its snapshots.
func (c *MemoryCanvas) SetDPI(dpi float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dpi = dpi
}

// Resize changes the drawable area.
func (c *MemoryCanvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
}

// AddArtist marks an artist as alive on the canvas.
func (c *MemoryCanvas) AddArtist(a Artist) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artists[a] = struct{}{}
}

// RemoveArtist marks an artist as gone from the canvas.
func (c *MemoryCanvas) RemoveArtist(a Artist) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.artists, a)
}

// HasArtist reports whether the artist is alive on the canvas.
func (c *MemoryCanvas) HasArtist(a Artist) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.artists[a]
	return ok
}

// Present stores the composed frame. The last frame is retained for
// inspection via Frame.
func (c *MemoryCanvas) Present(frame *Pixmap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame.Clone()
}

// Frame returns a copy of the most recently presented frame, or nil if
// nothing has been presented yet.
func (c *MemoryCanvas) Frame() *Pixmap {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return nil
	}
	return c.frame.Clone()
}

// RequestRedraw counts redraw requests; there is no event loop to wake.
func (c *MemoryCanvas) RequestRedraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redraws++
}

// RedrawRequests returns how many idle repaints were requested.
func (c *MemoryCanvas) RedrawRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redraws
}

// SetLogger implements the loggerSetter interface so the canvas shares
// the library logger.
func (c *MemoryCanvas) SetLogger(l *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}
