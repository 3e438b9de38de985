package fill

import (
	"image/color"

	"github.com/gogpu/engrave"
)

// Pattern supplies the fill color of each pixel.
type Pattern interface {
	// ColorAt returns the color for pixel (x, y) of the filled buffer.
	ColorAt(x, y int) color.NRGBA
}

// Solid fills with a single color.
type Solid struct {
	Color color.NRGBA
}

// NewSolid creates a solid pattern from an editing color.
func NewSolid(c engrave.RGBA) Solid {
	return Solid{Color: c.NRGBA()}
}

// ColorAt implements Pattern.
func (p Solid) ColorAt(_, _ int) color.NRGBA {
	return p.Color
}

// Tiled repeats a pattern image across the buffer. Sampling wraps around
// both axes, starting from (OffsetX, OffsetY) inside the tile; negative
// offsets are clamped to zero.
type Tiled struct {
	Tile    *engrave.Pixmap
	OffsetX int
	OffsetY int
}

// NewTiled creates a tiled pattern with no offset.
func NewTiled(tile *engrave.Pixmap) Tiled {
	return Tiled{Tile: tile}
}

// ColorAt implements Pattern. An empty tile yields transparent black.
func (p Tiled) ColorAt(x, y int) color.NRGBA {
	if p.Tile == nil || p.Tile.Width() == 0 || p.Tile.Height() == 0 {
		return color.NRGBA{}
	}
	w, h := p.Tile.Width(), p.Tile.Height()
	return p.Tile.PixelAt(wrap(x+max(p.OffsetX, 0), w), wrap(y+max(p.OffsetY, 0), h))
}

// wrap maps v into [0, n).
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
