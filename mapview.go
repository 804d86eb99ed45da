package geoviz

import (
	"sync"
	"time"
)

// TransformFunc reprojects dataset coordinates into plot space. The
// projection math itself lives outside geoviz; this is the opaque hook
// it is consumed through.
type TransformFunc func(x, y float64) (float64, float64)

// MapView composes the interactive core behind one object: a host
// canvas, the layer registry, the blit manager, the event dispatcher,
// and the spatial index over the currently plotted dataset.
//
// A MapView is driven from the host toolkit's UI thread: input arrives
// through the Handle* methods, redraws happen inside Update cycles
// triggered by state changes.
type MapView struct {
	mu         sync.Mutex
	canvas     Canvas
	cfg        Config
	layers     *LayerRegistry
	blit       *BlitManager
	dispatcher *Dispatcher
	index      *SpatialIndex
}

// NewMapView creates a map view on the given canvas with the default
// layer visible.
func NewMapView(canvas Canvas, opts ...Option) *MapView {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	propagateLogger(canvas, Logger())

	m := &MapView{
		canvas:     canvas,
		cfg:        cfg,
		layers:     NewLayerRegistry(),
		blit:       NewBlitManager(canvas, cfg),
		dispatcher: NewDispatcher(cfg),
	}
	m.layers.SetListener(m.blit)
	m.dispatcher.SetVisibilityFunc(m.layers.IsVisible)
	m.dispatcher.SetPickFunc(m.pickForClick)
	m.layers.ShowLayer(LayerSpec{Name: DefaultLayer})
	return m
}

// Canvas returns the host canvas boundary.
func (m *MapView) Canvas() Canvas { return m.canvas }

// Config returns the configuration the view was created with.
func (m *MapView) Config() Config { return m.cfg }

// Layers returns the layer registry.
func (m *MapView) Layers() *LayerRegistry { return m.layers }

// Blit returns the redraw coordinator.
func (m *MapView) Blit() *BlitManager { return m.blit }

// Dispatcher returns the event dispatcher.
func (m *MapView) Dispatcher() *Dispatcher { return m.dispatcher }

// dataConfig holds resolved SetData options.
type dataConfig struct {
	transform TransformFunc
}

// DataOption configures SetData.
type DataOption func(*dataConfig)

// DataTransform applies a coordinate transform to the dataset before
// indexing, e.g. a projection from data CRS to plot CRS.
func DataTransform(f TransformFunc) DataOption {
	return func(c *dataConfig) {
		c.transform = f
	}
}

// SetData plots a dataset: coordinates (optionally transformed) are
// indexed for picking and values attached to pick results. The previous
// index is replaced wholesale, never mutated. values may be nil.
//
// Returns ErrEmptyDataset when no finite coordinate pair remains after
// transforming.
func (m *MapView) SetData(xs, ys, values []float64, opts ...DataOption) error {
	var cfg dataConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	px, py := xs, ys
	if cfg.transform != nil {
		px = make([]float64, len(xs))
		py = make([]float64, len(ys))
		for i := range xs {
			px[i], py[i] = cfg.transform(xs[i], ys[i])
		}
	}

	var iopts []IndexOption
	if values != nil {
		iopts = append(iopts, IndexValues(values))
	}
	idx, err := BuildIndex(px, py, iopts...)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.index = idx
	m.mu.Unlock()
	return nil
}

// ClearData drops the plotted dataset; subsequent picks fail with
// ErrIndexNotReady.
func (m *MapView) ClearData() {
	m.mu.Lock()
	m.index = nil
	m.mu.Unlock()
}

// Index returns the current spatial index, nil when no data is plotted.
func (m *MapView) Index() *SpatialIndex {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Pick queries the nearest plotted points to a plot-space position.
func (m *MapView) Pick(query Point, opts ...PickOption) (PickResult, error) {
	return m.Index().Pick(query, opts...)
}

// pickForClick resolves click positions to pick results for the
// dispatcher's synthesized pick events. Without data there is no pick
// event; a pick error here means the index vanished mid-dispatch and
// is only logged.
func (m *MapView) pickForClick(pos Point) *PickResult {
	idx := m.Index()
	if idx == nil {
		return nil
	}
	res, err := idx.Pick(pos)
	if err != nil {
		Logger().Warn("pick for click failed", "err", err)
		return nil
	}
	return &res
}

// HandleMouseDown feeds a mouse press from the host adapter.
func (m *MapView) HandleMouseDown(pos Point, button MouseButton, doubleClick bool, t time.Time) {
	m.dispatcher.MouseDown(pos, button, doubleClick, t)
}

// HandleMouseMove feeds pointer motion from the host adapter.
func (m *MapView) HandleMouseMove(pos Point, t time.Time) {
	m.dispatcher.MouseMove(pos, t)
}

// HandleKeyDown feeds a key press from the host adapter.
func (m *MapView) HandleKeyDown(key string, t time.Time) {
	m.dispatcher.KeyDown(key, t)
}

// HandleKeyUp feeds a key release from the host adapter.
func (m *MapView) HandleKeyUp(key string) {
	m.dispatcher.KeyUp(key)
}

// SetExtent records a pan/zoom change and redraws. Background
// snapshots are invalidated only when the extent actually changed.
func (m *MapView) SetExtent(e Extent) {
	m.blit.SetExtent(e)
	m.blit.Update()
}

// Update redraws the current composition.
func (m *MapView) Update() {
	m.blit.Update()
}

// OnClick attaches a click callback owned by a layer, firing only
// while that layer is visible ("" or "all" always fires) and, when
// modifier is non-empty, only while that key is held or sticky-active.
func (m *MapView) OnClick(layer, modifier string, fn Callback) CallbackID {
	return m.dispatcher.Attach(KindClick, CallbackSpec{Layer: layer, Modifier: modifier}, fn)
}

// OnPick attaches a pick callback; it receives the nearest-neighbor
// result for each click while data is plotted.
func (m *MapView) OnPick(layer, modifier string, fn Callback) CallbackID {
	return m.dispatcher.Attach(KindPick, CallbackSpec{Layer: layer, Modifier: modifier}, fn)
}

// OnMove attaches a pointer-motion callback.
func (m *MapView) OnMove(layer, modifier string, fn Callback) CallbackID {
	return m.dispatcher.Attach(KindMove, CallbackSpec{Layer: layer, Modifier: modifier}, fn)
}

// OnKey attaches a key-press callback.
func (m *MapView) OnKey(layer string, fn Callback) CallbackID {
	return m.dispatcher.Attach(KindKey, CallbackSpec{Layer: layer}, fn)
}

// RemoveCallback unregisters any callback attached through this map.
func (m *MapView) RemoveCallback(id CallbackID) error {
	return m.dispatcher.Remove(id)
}

// ShareEvents links this map with another so input on either runs both
// maps' callback sets.
func (m *MapView) ShareEvents(other *MapView) {
	if other == nil {
		return
	}
	m.dispatcher.ShareEvents(other.dispatcher)
}

// ForwardEvents replays this map's input on the other map and
// suppresses the other map's own direct input.
func (m *MapView) ForwardEvents(other *MapView) {
	if other == nil {
		return
	}
	m.dispatcher.ForwardEvents(other.dispatcher)
}

// Close tears the map down: layers, artists, snapshots, and the
// dataset index are released. The canvas stays with its owner.
func (m *MapView) Close() {
	m.layers.Reset()
	m.ClearData()
}
