package geoviz

import (
	"errors"
	"testing"
	"time"
)

func newTestMap(t *testing.T) (*MapView, *MemoryCanvas) {
	t.Helper()
	canvas := NewMemoryCanvas(32, 32)
	mv := NewMapView(canvas, WithDoubleClickInterval(0), WithMotionRateLimit(0))
	return mv, canvas
}

func TestNewMapViewShowsDefaultLayer(t *testing.T) {
	mv, _ := newTestMap(t)

	comp := mv.Layers().Composition()
	if len(comp) != 1 || comp[0].Name != DefaultLayer {
		t.Errorf("initial composition = %+v, want [%s]", comp, DefaultLayer)
	}
}

func TestMapViewPick(t *testing.T) {
	mv, _ := newTestMap(t)

	if err := mv.SetData([]float64{0, 1, 2}, []float64{0, 1, 2}, nil); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}

	res, err := mv.Pick(Pt(0.1, 0.1))
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if res.Empty() || res.Hits[0].Index != 0 {
		t.Errorf("pick result = %+v, want index 0", res.Hits)
	}
}

func TestMapViewPickWithoutData(t *testing.T) {
	mv, _ := newTestMap(t)

	_, err := mv.Pick(Pt(0, 0))
	if !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Pick error = %v, want ErrIndexNotReady", err)
	}
}

func TestSetDataTransform(t *testing.T) {
	mv, _ := newTestMap(t)

	// Transform shifts x by +10; picking must see plot coordinates.
	shift := func(x, y float64) (float64, float64) { return x + 10, y }
	if err := mv.SetData([]float64{0, 1}, []float64{0, 0}, nil, DataTransform(shift)); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}

	res, err := mv.Pick(Pt(10.1, 0))
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if res.Empty() || res.Hits[0].Index != 0 {
		t.Errorf("pick after transform = %+v, want index 0", res.Hits)
	}
}

func TestSetDataEmpty(t *testing.T) {
	mv, _ := newTestMap(t)

	err := mv.SetData(nil, nil, nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("SetData error = %v, want ErrEmptyDataset", err)
	}
}

func TestClearData(t *testing.T) {
	mv, _ := newTestMap(t)

	if err := mv.SetData([]float64{0}, []float64{0}, nil); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}
	mv.ClearData()

	_, err := mv.Pick(Pt(0, 0))
	if !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Pick after ClearData error = %v, want ErrIndexNotReady", err)
	}
}

func TestClickProducesPickEvent(t *testing.T) {
	mv, _ := newTestMap(t)

	if err := mv.SetData([]float64{0, 5}, []float64{0, 0}, []float64{1.5, 2.5}); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}

	var picked *PickResult
	mv.OnPick("", "", func(ev *Event) { picked = ev.Pick })

	mv.HandleMouseDown(Pt(0.2, 0), ButtonLeft, false, time.Now())

	if picked == nil {
		t.Fatal("pick event not dispatched on click")
	}
	if picked.Empty() || picked.Hits[0].Index != 0 {
		t.Fatalf("pick result = %+v, want index 0", picked.Hits)
	}
	if picked.Hits[0].Value != 1.5 {
		t.Errorf("picked value = %v, want 1.5", picked.Hits[0].Value)
	}
}

func TestNoPickEventWithoutData(t *testing.T) {
	mv, _ := newTestMap(t)

	fired := false
	mv.OnPick("", "", func(*Event) { fired = true })

	mv.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if fired {
		t.Error("pick event dispatched without plotted data")
	}
}

func TestCallbackGatedByLayerVisibility(t *testing.T) {
	mv, _ := newTestMap(t)

	var onData, onBase int
	mv.OnClick("data", "", func(*Event) { onData++ })
	mv.OnClick(DefaultLayer, "", func(*Event) { onBase++ })

	// "data" is not part of the composition yet.
	mv.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if onData != 0 || onBase != 1 {
		t.Fatalf("onData=%d onBase=%d, want 0 1", onData, onBase)
	}

	mv.Layers().ShowLayer(LayerSpec{Name: DefaultLayer}, LayerSpec{Name: "data"})
	mv.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if onData != 1 || onBase != 2 {
		t.Errorf("onData=%d onBase=%d, want 1 2", onData, onBase)
	}
}

func TestModifierScenario(t *testing.T) {
	mv, _ := newTestMap(t)

	fired := 0
	mv.OnClick("", "1", func(*Event) { fired++ })

	// Key "1" held: callback fires.
	mv.HandleKeyDown("1", time.Now())
	mv.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if fired != 1 {
		t.Fatalf("callback fired %d times with key held, want 1", fired)
	}

	// Key released: callback silent.
	mv.HandleKeyUp("1")
	mv.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if fired != 1 {
		t.Errorf("callback fired without key held")
	}
}

func TestRemoveCallbackThroughMap(t *testing.T) {
	mv, _ := newTestMap(t)

	fired := 0
	id := mv.OnClick("", "", func(*Event) { fired++ })
	if err := mv.RemoveCallback(id); err != nil {
		t.Fatalf("RemoveCallback failed: %v", err)
	}

	mv.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if fired != 0 {
		t.Errorf("removed callback fired %d times", fired)
	}
}

func TestShareEventsBetweenMaps(t *testing.T) {
	m1, _ := newTestMap(t)
	m2, _ := newTestMap(t)
	m1.ShareEvents(m2)

	var on1, on2 int
	m1.OnClick("", "", func(*Event) { on1++ })
	m2.OnClick("", "", func(*Event) { on2++ })

	m1.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if on1 != 1 || on2 != 1 {
		t.Errorf("on1=%d on2=%d after shared click, want 1 1", on1, on2)
	}
}

func TestForwardEventsBetweenMaps(t *testing.T) {
	src, _ := newTestMap(t)
	dst, _ := newTestMap(t)
	src.ForwardEvents(dst)

	var onDst int
	dst.OnClick("", "", func(*Event) { onDst++ })

	dst.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if onDst != 0 {
		t.Fatalf("forward target handled its own click")
	}

	src.HandleMouseDown(Pt(0, 0), ButtonLeft, false, time.Now())
	if onDst != 1 {
		t.Errorf("forwarded click dispatched %d times on target, want 1", onDst)
	}
}

func TestSetExtentRedraws(t *testing.T) {
	mv, canvas := newTestMap(t)

	mv.SetExtent(Extent{XMin: 0, YMin: 0, XMax: 100, YMax: 100})
	if canvas.Frame() == nil {
		t.Error("SetExtent did not present a frame")
	}
	if canvas.RedrawRequests() == 0 {
		t.Error("SetExtent did not request an idle repaint")
	}
}

func TestClose(t *testing.T) {
	mv, _ := newTestMap(t)

	if err := mv.SetData([]float64{0}, []float64{0}, nil); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}
	mv.Layers().ShowLayer(LayerSpec{Name: "extra"})
	mv.Close()

	if len(mv.Layers().Names()) != 0 {
		t.Errorf("layers survive Close: %v", mv.Layers().Names())
	}
	if _, err := mv.Pick(Pt(0, 0)); !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Pick after Close error = %v, want ErrIndexNotReady", err)
	}
}
