package geoviz

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Pixmap represents a rectangular pixel buffer in premultiplied RGBA.
// The blit manager uses pixmaps as background snapshots and as the front
// buffer that gets presented to the host canvas.
type Pixmap struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewPixmap creates a new transparent pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Clear resets every pixel to fully transparent.
func (p *Pixmap) Clear() {
	clear(p.data)
}

// SetPixel sets the color of a single pixel. Out-of-range coordinates
// are ignored.
func (p *Pixmap) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = c.R
	p.data[i+1] = c.G
	p.data[i+2] = c.B
	p.data[i+3] = c.A
}

// GetPixel returns the color of a single pixel. Out-of-range coordinates
// return transparent black.
func (p *Pixmap) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.RGBA{}
	}
	i := (y*p.width + x) * 4
	return color.RGBA{R: p.data[i+0], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// RGBA returns an *image.RGBA view sharing this pixmap's pixel data.
// Mutations through the view are visible in the pixmap and vice versa.
func (p *Pixmap) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    p.data,
		Stride: p.width * 4,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}
}

// CopyFrom overwrites this pixmap with the contents of src.
// Both pixmaps must have identical dimensions.
func (p *Pixmap) CopyFrom(src *Pixmap) {
	if src == nil || src.width != p.width || src.height != p.height {
		return
	}
	copy(p.data, src.data)
}

// Clone returns an independent copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	c := NewPixmap(p.width, p.height)
	copy(c.data, p.data)
	return c
}

// Composite alpha-composites src over this pixmap at the given opacity.
// Opacity is clamped to [0, 1]; 1 is a plain source-over blend.
func (p *Pixmap) Composite(src *Pixmap, opacity float64) {
	if src == nil {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	if opacity <= 0 {
		return
	}
	dst := p.RGBA()
	if opacity == 1 {
		xdraw.Draw(dst, dst.Rect, src.RGBA(), image.Point{}, xdraw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	xdraw.DrawMask(dst, dst.Rect, src.RGBA(), image.Point{}, mask, image.Point{}, xdraw.Over)
}

// ScaleFrom rescales src to fill this pixmap. Used to stretch a stale
// background snapshot as a cheap preview while a resized one is rebuilt.
func (p *Pixmap) ScaleFrom(src *Pixmap) {
	if src == nil {
		return
	}
	dst := p.RGBA()
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, src.RGBA(), src.RGBA().Rect, xdraw.Src, nil)
}

// Equal reports whether two pixmaps have identical dimensions and pixels.
func (p *Pixmap) Equal(q *Pixmap) bool {
	if q == nil || p.width != q.width || p.height != q.height {
		return false
	}
	for i := range p.data {
		if p.data[i] != q.data[i] {
			return false
		}
	}
	return true
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	return p.GetPixel(x, y)
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.RGBAModel
}
