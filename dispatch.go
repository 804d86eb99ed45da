package geoviz

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Callback is a user-supplied event handler. Callbacks run synchronously
// on the dispatching thread; a panicking callback is logged and the
// remaining callbacks for the same event still run.
type Callback func(*Event)

// CallbackSpec describes when an attached callback fires.
type CallbackSpec struct {
	// Layer is the owning layer. The callback only fires while that
	// layer is part of the visible composition. "" and "all" fire
	// regardless of visibility.
	Layer string

	// Button restricts click and pick callbacks to one mouse button.
	// ButtonAny matches every button.
	Button MouseButton

	// Modifier is a key name that must be held (or sticky-active) for
	// the callback to fire. "" fires only while no sticky modifier is
	// active.
	Modifier string

	// DoubleClick selects double clicks instead of single clicks for
	// click callbacks. Single-click callbacks never fire for the
	// second click of a double-click sequence.
	DoubleClick bool
}

// CallbackID is the opaque handle returned by Attach and consumed by
// Remove. Ids are unique within their event category.
type CallbackID struct {
	kind EventKind
	seq  uint64
}

// String returns a log-friendly form like "click#3".
func (id CallbackID) String() string {
	return fmt.Sprintf("%s#%d", id.kind, id.seq)
}

// registration is one attached callback.
type registration struct {
	id   CallbackID
	spec CallbackSpec
	fn   Callback
}

// pendingClick is a buffered single click awaiting its double-click
// window.
type pendingClick struct {
	ev    *Event
	timer *time.Timer
}

// Dispatcher routes host input events to attached callbacks.
//
// Each event category runs an Idle -> Dispatching -> Idle cycle: events
// of a category that arrive while that category is dispatching (from a
// callback re-triggering input) are queued and drained afterwards, so
// shared state such as the current pick is never mutated mid-callback.
//
// All dispatch work runs synchronously on the caller's thread. The one
// internal goroutine is the double-click hold timer; the mutex makes
// its re-entry safe.
type Dispatcher struct {
	mu sync.Mutex

	regs    map[EventKind][]*registration
	nextSeq uint64

	keysDown  map[string]struct{}
	sticky    map[EventKind]string              // active sticky modifier per category
	stickyOK  map[EventKind]map[string]struct{} // keys eligible for sticky toggling
	doubleTTL time.Duration
	pending   *pendingClick

	dispatching map[EventKind]bool
	queue       map[EventKind][]*Event

	// visible gates callbacks by their owning layer. Nil means all
	// layers count as visible.
	visible func(layer string) bool

	// pickFunc resolves a click position to a pick result. Set by the
	// owning MapView; nil disables pick events.
	pickFunc func(Point) *PickResult

	moveLimiter *rate.Limiter

	shared   []*Dispatcher // peers that also receive this map's events
	forwards []*Dispatcher // targets that receive (only) forwarded events

	// suppressLocal drops this dispatcher's own direct input; set on
	// the target of ForwardEvents so it only reacts to replayed events.
	suppressLocal bool
}

// NewDispatcher creates a dispatcher with the given configuration.
func NewDispatcher(cfg Config) *Dispatcher {
	d := &Dispatcher{
		regs:        make(map[EventKind][]*registration),
		keysDown:    make(map[string]struct{}),
		sticky:      make(map[EventKind]string),
		stickyOK:    make(map[EventKind]map[string]struct{}),
		doubleTTL:   cfg.DoubleClickInterval,
		dispatching: make(map[EventKind]bool),
		queue:       make(map[EventKind][]*Event),
	}
	if cfg.MotionRateLimit > 0 {
		d.moveLimiter = rate.NewLimiter(rate.Limit(cfg.MotionRateLimit), 1)
	}
	return d
}

// SetVisibilityFunc installs the layer-visibility gate, typically the
// layer registry's IsVisible.
func (d *Dispatcher) SetVisibilityFunc(f func(layer string) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = f
}

// SetPickFunc installs the click-to-pick resolver used to synthesize
// pick events after clicks.
func (d *Dispatcher) SetPickFunc(f func(Point) *PickResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pickFunc = f
}

// Attach registers a callback for an event category and returns its
// removal handle.
func (d *Dispatcher) Attach(kind EventKind, spec CallbackSpec, fn Callback) CallbackID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextSeq++
	id := CallbackID{kind: kind, seq: d.nextSeq}
	d.regs[kind] = append(d.regs[kind], &registration{id: id, spec: spec, fn: fn})
	return id
}

// Remove unregisters a callback. Removing an unknown id returns
// ErrCallbackNotFound and logs a warning; it is never fatal.
func (d *Dispatcher) Remove(id CallbackID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := d.regs[id.kind]
	for i, r := range regs {
		if r.id == id {
			d.regs[id.kind] = append(regs[:i], regs[i+1:]...)
			return nil
		}
	}
	Logger().Warn("remove of unknown callback", "id", id.String())
	return fmt.Errorf("remove %s: %w", id, ErrCallbackNotFound)
}

// MarkSticky makes a key eligible for sticky toggling (via ctrl+key) in
// one event category. Sticky state is independent per category.
func (d *Dispatcher) MarkSticky(kind EventKind, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stickyOK[kind] == nil {
		d.stickyOK[kind] = make(map[string]struct{})
	}
	d.stickyOK[kind][key] = struct{}{}
}

// ActiveModifier returns the sticky modifier currently active for a
// category, or "" when none.
func (d *Dispatcher) ActiveModifier(kind EventKind) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sticky[kind]
}

// ShareEvents links two dispatchers bidirectionally: input on either
// map dispatches both maps' callback sets.
func (d *Dispatcher) ShareEvents(other *Dispatcher) {
	if other == nil || other == d {
		return
	}
	d.mu.Lock()
	d.shared = append(d.shared, other)
	d.mu.Unlock()
	other.mu.Lock()
	other.shared = append(other.shared, d)
	other.mu.Unlock()
}

// ForwardEvents replays this map's input on dst and suppresses dst's
// own direct input, so dst only mirrors this map.
func (d *Dispatcher) ForwardEvents(dst *Dispatcher) {
	if dst == nil || dst == d {
		return
	}
	d.mu.Lock()
	d.forwards = append(d.forwards, dst)
	d.mu.Unlock()
	dst.mu.Lock()
	dst.suppressLocal = true
	dst.mu.Unlock()
}

// MouseDown feeds a mouse press from the host toolkit. Single clicks
// are held for the double-click interval so that single-click callbacks
// can be cancelled when the second click of a double click arrives.
func (d *Dispatcher) MouseDown(pos Point, button MouseButton, doubleClick bool, t time.Time) {
	ev := &Event{Kind: KindClick, Pos: pos, Button: button, DoubleClick: doubleClick, Time: t}

	if doubleClick {
		d.cancelPending()
		d.propagate(ev)
		return
	}

	d.mu.Lock()
	if d.doubleTTL <= 0 {
		d.mu.Unlock()
		d.propagate(ev)
		return
	}
	// A still-held earlier click can no longer become a double click
	// once a new press arrives; dispatch it before holding the new one.
	var flush *Event
	if d.pending != nil {
		d.pending.timer.Stop()
		flush = d.pending.ev
		d.pending = nil
	}
	p := &pendingClick{ev: ev}
	p.timer = time.AfterFunc(d.doubleTTL, func() { d.flushPending(p) })
	d.pending = p
	d.mu.Unlock()

	if flush != nil {
		d.propagate(flush)
	}
}

// flushPending dispatches a held single click once its double-click
// window has expired without a second click.
func (d *Dispatcher) flushPending(p *pendingClick) {
	d.mu.Lock()
	if d.pending != p {
		// Cancelled by a double click in the meantime.
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()
	d.propagate(p.ev)
}

func (d *Dispatcher) cancelPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelPendingLocked()
}

func (d *Dispatcher) cancelPendingLocked() {
	if d.pending != nil {
		d.pending.timer.Stop()
		d.pending = nil
	}
}

// MouseMove feeds pointer motion from the host toolkit. Motion floods
// are coalesced: events beyond the configured rate are dropped.
func (d *Dispatcher) MouseMove(pos Point, t time.Time) {
	if d.moveLimiter != nil && !d.moveLimiter.Allow() {
		return
	}
	d.propagate(&Event{Kind: KindMove, Pos: pos, Time: t})
}

// KeyDown feeds a key press from the host toolkit. Besides dispatching
// key callbacks this maintains held-key and sticky-modifier state:
// escape clears every category's sticky modifier, and ctrl+K toggles K
// for the categories where K was marked sticky.
func (d *Dispatcher) KeyDown(key string, t time.Time) {
	d.mu.Lock()
	d.keysDown[key] = struct{}{}

	switch {
	case key == "escape":
		for kind := range d.sticky {
			delete(d.sticky, kind)
		}
	default:
		if _, ctrl := d.keysDown["ctrl"]; ctrl {
			for kind, ok := range d.stickyOK {
				if _, eligible := ok[key]; !eligible {
					continue
				}
				if d.sticky[kind] == key {
					delete(d.sticky, kind) // toggle off
				} else {
					d.sticky[kind] = key
				}
			}
		}
	}
	d.mu.Unlock()

	d.propagate(&Event{Kind: KindKey, Key: key, Time: t})
}

// KeyUp feeds a key release from the host toolkit.
func (d *Dispatcher) KeyUp(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keysDown, key)
}

// propagate delivers a native event locally (unless this dispatcher is
// a forward target), to shared peers, and to forward targets. Peer
// delivery happens only for native input, never inside Trigger, so
// bidirectional shares cannot loop.
func (d *Dispatcher) propagate(ev *Event) {
	d.mu.Lock()
	suppress := d.suppressLocal
	shared := append([]*Dispatcher(nil), d.shared...)
	forwards := append([]*Dispatcher(nil), d.forwards...)
	d.mu.Unlock()

	if !suppress {
		d.Trigger(ev)
	}
	for _, p := range shared {
		p.Trigger(ev)
	}
	for _, f := range forwards {
		f.Trigger(ev)
	}
}

// Trigger dispatches one event through this dispatcher's callback set.
// Re-entrant events of the same category are queued and processed after
// the current dispatch completes.
func (d *Dispatcher) Trigger(ev *Event) {
	d.mu.Lock()
	if d.dispatching[ev.Kind] {
		d.queue[ev.Kind] = append(d.queue[ev.Kind], ev)
		d.mu.Unlock()
		return
	}
	d.dispatching[ev.Kind] = true
	d.mu.Unlock()

	d.dispatchOne(ev)
	for {
		d.mu.Lock()
		q := d.queue[ev.Kind]
		if len(q) == 0 {
			d.dispatching[ev.Kind] = false
			d.mu.Unlock()
			return
		}
		next := q[0]
		d.queue[ev.Kind] = q[1:]
		d.mu.Unlock()
		d.dispatchOne(next)
	}
}

// dispatchOne runs all matching callbacks for a single event, then the
// synthesized pick dispatch for clicks.
func (d *Dispatcher) dispatchOne(ev *Event) {
	d.mu.Lock()
	matched := make([]*registration, 0, len(d.regs[ev.Kind]))
	for _, r := range d.regs[ev.Kind] {
		if d.matchesLocked(r.spec, ev) {
			matched = append(matched, r)
		}
	}
	pickFunc := d.pickFunc
	d.mu.Unlock()

	for _, r := range matched {
		delivered := *ev
		delivered.Modifier = r.spec.Modifier
		d.invoke(r, &delivered)
	}

	// A click with a plotted dataset also produces a pick event.
	if ev.Kind == KindClick && pickFunc != nil {
		res := pickFunc(ev.Pos)
		if res != nil {
			pickEv := &Event{
				Kind:        KindPick,
				Pos:         ev.Pos,
				Button:      ev.Button,
				DoubleClick: ev.DoubleClick,
				Pick:        res,
				Time:        ev.Time,
			}
			d.Trigger(pickEv)
		}
	}
}

// matchesLocked reports whether a spec matches an event under the
// current modifier, button, and visibility state. Caller holds d.mu.
func (d *Dispatcher) matchesLocked(spec CallbackSpec, ev *Event) bool {
	if (ev.Kind == KindClick || ev.Kind == KindPick) &&
		spec.Button != ButtonAny && spec.Button != ev.Button {
		return false
	}
	if ev.Kind == KindClick && spec.DoubleClick != ev.DoubleClick {
		return false
	}

	if spec.Modifier == "" {
		if d.sticky[ev.Kind] != "" {
			return false
		}
	} else {
		_, held := d.keysDown[spec.Modifier]
		if !held && d.sticky[ev.Kind] != spec.Modifier {
			return false
		}
	}

	if spec.Layer != "" && spec.Layer != LayerAll && d.visible != nil && !d.visible(spec.Layer) {
		return false
	}
	return true
}

// invoke runs one callback with panic isolation so a broken callback
// cannot take down the event loop.
func (d *Dispatcher) invoke(r *registration, ev *Event) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger().Warn("callback panicked",
				"id", r.id.String(),
				"kind", ev.Kind.String(),
				"panic", rec)
		}
	}()
	r.fn(ev)
}
