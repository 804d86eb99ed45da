// Package geoviz provides the interactive core of a multi-layer map canvas.
//
// # Overview
//
// geoviz layers an interactive mapping abstraction on top of a host
// plotting toolkit. It owns the coordination work that makes a map feel
// responsive: named drawing layers with per-layer opacity, a blit-style
// redraw coordinator that caches background rasters between frames, an
// R-tree backed nearest-neighbor picker, and an event dispatcher that
// routes host input to user callbacks.
//
// It deliberately does not draw shapes, reproject coordinates, or read
// files. Those belong to the host toolkit and to external collaborators;
// geoviz consumes them through the Canvas and Artist interfaces and an
// opaque coordinate Transform hook.
//
// # Quick Start
//
//	mv := geoviz.NewMapView(canvas)
//
//	// Plot a dataset (coordinates already in plot space).
//	mv.SetData(xs, ys, values)
//
//	// React to picks near the mouse.
//	mv.OnPick("data", "", func(ev *geoviz.Event) {
//	    if !ev.Pick.Empty() {
//	        fmt.Println("picked index", ev.Pick.Hits[0].Index)
//	    }
//	})
//
//	// Show two layers, the second at 50% opacity.
//	mv.Layers().ShowLayer(
//	    geoviz.LayerSpec{Name: "coast", Opacity: 1},
//	    geoviz.LayerSpec{Name: "data", Opacity: 0.5},
//	)
//
// # Architecture
//
// The core is four small pieces, leaves first:
//   - SpatialIndex: R-tree over plotted coordinates, k-NN picking
//   - Dispatcher: input routing, modifiers, double-click handling
//   - BlitManager: background snapshot cache + dynamic artist redraw
//   - LayerRegistry: source of truth for layers and visibility
//
// MapView composes all four behind one object. Each piece is usable on
// its own; the registry talks to the blit manager through a narrow
// listener interface so there are no reference cycles.
//
// # Coordinate System
//
// All positions are in plot-projection space, origin top-left, X right,
// Y down. Reprojection happens before data reaches geoviz, either by the
// caller or through the Transform hook on SetData.
//
// # Concurrency
//
// The core is single-threaded by design: all picking, dispatch, and
// redraw work runs synchronously on the host toolkit's UI thread. The
// only internal goroutine is the double-click hold timer, which re-enters
// the dispatcher under its lock.
package geoviz

// Version is the current version of the library.
const Version = "0.1.0"
