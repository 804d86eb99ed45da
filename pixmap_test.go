package geoviz

import (
	"image/color"
	"testing"
)

func TestPixmapSetGet(t *testing.T) {
	pm := NewPixmap(4, 4)
	c := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	pm.SetPixel(1, 2, c)

	if got := pm.GetPixel(1, 2); got != c {
		t.Errorf("GetPixel = %+v, want %+v", got, c)
	}
	// Out of range is silently ignored / transparent.
	pm.SetPixel(-1, 0, c)
	pm.SetPixel(4, 0, c)
	if got := pm.GetPixel(9, 9); got != (color.RGBA{}) {
		t.Errorf("out-of-range GetPixel = %+v, want zero", got)
	}
}

func TestPixmapCloneEqual(t *testing.T) {
	pm := NewPixmap(3, 3)
	pm.SetPixel(0, 0, color.RGBA{R: 255, A: 255})

	cl := pm.Clone()
	if !pm.Equal(cl) {
		t.Fatal("clone differs from original")
	}

	cl.SetPixel(1, 1, color.RGBA{G: 255, A: 255})
	if pm.Equal(cl) {
		t.Error("mutating clone changed original equality")
	}
	if pm.Equal(NewPixmap(2, 3)) {
		t.Error("pixmaps of different sizes compared equal")
	}
}

func TestCompositeOpaque(t *testing.T) {
	dst := NewPixmap(2, 2)
	src := NewPixmap(2, 2)
	src.SetPixel(0, 0, color.RGBA{R: 255, A: 255})

	dst.Composite(src, 1)
	if got := dst.GetPixel(0, 0); got.R != 255 || got.A != 255 {
		t.Errorf("pixel after opaque composite = %+v", got)
	}
	// Transparent source pixels leave dst untouched.
	if got := dst.GetPixel(1, 1); got != (color.RGBA{}) {
		t.Errorf("transparent pixel bled into dst: %+v", got)
	}
}

func TestCompositeHalfOpacity(t *testing.T) {
	dst := NewPixmap(1, 1)
	src := NewPixmap(1, 1)
	src.SetPixel(0, 0, color.RGBA{B: 255, A: 255})

	dst.Composite(src, 0.5)
	got := dst.GetPixel(0, 0)
	if got.B < 100 || got.B > 155 {
		t.Errorf("half-opacity blue = %d, want about 128", got.B)
	}
}

func TestCompositeClampedOpacity(t *testing.T) {
	dst := NewPixmap(1, 1)
	src := NewPixmap(1, 1)
	src.SetPixel(0, 0, color.RGBA{R: 255, A: 255})

	dst.Composite(src, 0)
	if got := dst.GetPixel(0, 0); got != (color.RGBA{}) {
		t.Errorf("zero opacity composited pixels: %+v", got)
	}
	dst.Composite(src, 5)
	if got := dst.GetPixel(0, 0); got.R != 255 {
		t.Errorf("clamped opacity pixel = %+v, want opaque red", got)
	}
}

func TestScaleFrom(t *testing.T) {
	src := NewPixmap(2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetPixel(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	dst := NewPixmap(4, 4)
	dst.ScaleFrom(src)
	got := dst.GetPixel(1, 1)
	if got.A != 255 || got.R < 190 {
		t.Errorf("scaled interior pixel = %+v, want solid red", got)
	}
}

func TestPixmapPoolReuse(t *testing.T) {
	pool := newPixmapPool(2)

	pm := pool.Get(8, 8)
	pm.SetPixel(0, 0, color.RGBA{R: 255, A: 255})
	pool.Put(pm)

	re := pool.Get(8, 8)
	if re != pm {
		t.Error("pool did not reuse the returned pixmap")
	}
	if got := re.GetPixel(0, 0); got != (color.RGBA{}) {
		t.Errorf("reused pixmap not cleared: %+v", got)
	}

	// Different size allocates fresh.
	other := pool.Get(4, 4)
	if other.Width() != 4 || other.Height() != 4 {
		t.Errorf("pool returned wrong size: %dx%d", other.Width(), other.Height())
	}
}

func TestPixmapPoolCapacity(t *testing.T) {
	pool := newPixmapPool(1)
	a := pool.Get(2, 2)
	b := pool.Get(2, 2)
	pool.Put(a)
	pool.Put(b) // over capacity, discarded

	got := pool.Get(2, 2)
	if got != a {
		t.Error("pool did not hand back the retained pixmap first")
	}
	if next := pool.Get(2, 2); next == b {
		t.Error("pool retained a pixmap beyond its bucket capacity")
	}
}
