package geoviz

import (
	"fmt"
	"sync"
)

// LayerAll is the union layer: its artists are drawn into every other
// layer's composition and its callbacks fire regardless of visibility.
const LayerAll = "all"

// DefaultLayer is the layer shown by a fresh MapView.
const DefaultLayer = "base"

// LayerSpec names a layer within a composition, with an opacity in
// (0, 1]. A zero Opacity is normalized to 1 so that LayerSpec{Name: "A"}
// means "A, fully opaque".
type LayerSpec struct {
	Name    string
	Opacity float64
}

func (s LayerSpec) normalized() LayerSpec {
	if s.Opacity <= 0 || s.Opacity > 1 {
		s.Opacity = 1
	}
	return s
}

// ActivationID is the removal handle for an on-activation callback.
type ActivationID uint64

// compositionListener receives layer lifecycle notifications. The blit
// manager implements it; the registry only knows this narrow interface,
// so there are no reference cycles between the two.
type compositionListener interface {
	CompositionChanged(specs []LayerSpec)
	LayerRemoved(name string)
}

// activationReg is one on-activation callback.
type activationReg struct {
	id ActivationID
	fn func(layer string)
}

// layerState is the registry's record of one named layer.
type layerState struct {
	name        string
	visible     bool
	activations []*activationReg
}

// LayerRegistry is the source of truth for which layers exist and which
// are visible. Layers are created implicitly on first reference and a
// composition is an ordered list of (name, opacity) specs, first named
// at the bottom.
type LayerRegistry struct {
	mu          sync.Mutex
	layers      map[string]*layerState
	composition []LayerSpec
	listener    compositionListener
	nextID      ActivationID
}

// NewLayerRegistry creates an empty registry with nothing visible.
func NewLayerRegistry() *LayerRegistry {
	return &LayerRegistry{layers: make(map[string]*layerState)}
}

// SetListener installs the composition listener (the blit manager).
func (lr *LayerRegistry) SetListener(l compositionListener) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.listener = l
}

// ensureLocked returns the named layer, creating it on first reference.
func (lr *LayerRegistry) ensureLocked(name string) *layerState {
	ls, ok := lr.layers[name]
	if !ok {
		ls = &layerState{name: name}
		lr.layers[name] = ls
	}
	return ls
}

// Has reports whether a layer exists.
func (lr *LayerRegistry) Has(name string) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	_, ok := lr.layers[name]
	return ok
}

// Names returns the names of all known layers, in no particular order.
func (lr *LayerRegistry) Names() []string {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	names := make([]string, 0, len(lr.layers))
	for name := range lr.layers {
		names = append(names, name)
	}
	return names
}

// ShowLayer replaces the visible composition. Specs are normalized
// (zero opacity becomes 1) and duplicate names collapse to their first
// occurrence, so showing the same composition twice is a no-op state
// wise. Missing layers are created implicitly. Activation callbacks
// fire exactly once per layer transitioning into visibility, after the
// composition is committed and the listener notified.
func (lr *LayerRegistry) ShowLayer(specs ...LayerSpec) {
	lr.mu.Lock()

	seen := make(map[string]struct{}, len(specs))
	comp := make([]LayerSpec, 0, len(specs))
	for _, s := range specs {
		s = s.normalized()
		if s.Name == "" {
			continue
		}
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}
		comp = append(comp, s)
		lr.ensureLocked(s.Name)
	}

	var activated []*layerState
	for name, ls := range lr.layers {
		_, nowVisible := seen[name]
		if nowVisible && !ls.visible {
			activated = append(activated, ls)
		}
		ls.visible = nowVisible
	}
	lr.composition = comp
	listener := lr.listener

	var fns []func(layer string)
	var names []string
	for _, ls := range activated {
		for _, reg := range ls.activations {
			fns = append(fns, reg.fn)
			names = append(names, ls.name)
		}
	}
	lr.mu.Unlock()

	if listener != nil {
		listener.CompositionChanged(comp)
	}
	for i, fn := range fns {
		fn(names[i])
	}
}

// Composition returns the current visible composition, bottom first.
func (lr *LayerRegistry) Composition() []LayerSpec {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return append([]LayerSpec(nil), lr.composition...)
}

// IsVisible reports whether a layer is part of the current composition.
// The "all" layer is always visible.
func (lr *LayerRegistry) IsVisible(name string) bool {
	if name == LayerAll {
		return true
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	ls, ok := lr.layers[name]
	return ok && ls.visible
}

// OnActivate registers a callback fired once per transition of the
// layer into visibility (not on every redraw). The layer is created
// implicitly if needed.
func (lr *LayerRegistry) OnActivate(layer string, fn func(layer string)) ActivationID {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	ls := lr.ensureLocked(layer)
	lr.nextID++
	ls.activations = append(ls.activations, &activationReg{id: lr.nextID, fn: fn})
	return lr.nextID
}

// RemoveActivation unregisters an on-activation callback. Removing an
// unknown id returns ErrCallbackNotFound and logs a warning.
func (lr *LayerRegistry) RemoveActivation(id ActivationID) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	for _, ls := range lr.layers {
		for i, reg := range ls.activations {
			if reg.id == id {
				ls.activations = append(ls.activations[:i], ls.activations[i+1:]...)
				return nil
			}
		}
	}
	Logger().Warn("remove of unknown activation callback", "id", id)
	return fmt.Errorf("remove activation %d: %w", id, ErrCallbackNotFound)
}

// DeleteLayer destroys a layer: its artists, snapshot, and activation
// callbacks are dropped and it leaves the composition. Unknown names
// are ignored.
func (lr *LayerRegistry) DeleteLayer(name string) {
	lr.mu.Lock()
	if _, ok := lr.layers[name]; !ok {
		lr.mu.Unlock()
		return
	}
	delete(lr.layers, name)

	changed := false
	comp := lr.composition[:0]
	for _, s := range lr.composition {
		if s.Name == name {
			changed = true
			continue
		}
		comp = append(comp, s)
	}
	lr.composition = comp
	newComp := append([]LayerSpec(nil), comp...)
	listener := lr.listener
	lr.mu.Unlock()

	if listener != nil {
		listener.LayerRemoved(name)
		if changed {
			listener.CompositionChanged(newComp)
		}
	}
}

// Reset destroys every layer and clears the composition. Used when the
// owning map is torn down.
func (lr *LayerRegistry) Reset() {
	lr.mu.Lock()
	names := make([]string, 0, len(lr.layers))
	for name := range lr.layers {
		names = append(names, name)
	}
	lr.layers = make(map[string]*layerState)
	lr.composition = nil
	listener := lr.listener
	lr.mu.Unlock()

	if listener != nil {
		for _, name := range names {
			listener.LayerRemoved(name)
		}
		listener.CompositionChanged(nil)
	}
}
