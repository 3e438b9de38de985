// Package fill recolors regions of a decoration's raster without touching
// its line work.
//
// A pixel whose original color is dark and opaque is a line pixel. Line
// pixels act as walls for every flood fill and are never written, so the
// current image always matches the original on the line work.
//
// Two modes are provided. Global fill recolors every background region,
// starting from the buffer border so that arbitrary imported line art is
// handled without per-shape metadata. Seeded fill recolors the region
// around one clicked pixel.
//
// Fills run synchronously to completion and modify the current image in
// place.
package fill

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/engrave"
)

// Sentinel errors for the fill package.
var (
	// ErrNilBuffer is returned when no raster buffer is given.
	ErrNilBuffer = errors.New("fill: nil raster buffer")

	// ErrNilPattern is returned when no pattern is given.
	ErrNilPattern = errors.New("fill: nil pattern")
)

// OutOfBoundsError is returned when a seed lies outside the buffer.
type OutOfBoundsError struct {
	X, Y          int
	Width, Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("fill: seed (%d,%d) outside %dx%d buffer", e.X, e.Y, e.Width, e.Height)
}

// Mode selects the fill algorithm.
type Mode uint8

const (
	// ModeGlobal fills all background regions.
	ModeGlobal Mode = iota
	// ModeSeeded fills the region containing one seed pixel.
	ModeSeeded
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeGlobal:
		return "global"
	case ModeSeeded:
		return "seeded"
	default:
		return "unknown"
	}
}

// Request describes one fill operation.
type Request struct {
	Mode    Mode
	Pattern Pattern

	// SeedX and SeedY locate the clicked pixel for ModeSeeded.
	SeedX, SeedY int

	// ExteriorOnly limits ModeGlobal to background reachable from the
	// buffer border, leaving enclosed holes untouched.
	ExteriorOnly bool
}

// Result reports what a fill did.
type Result struct {
	// Changed is the number of pixels whose color changed.
	Changed int
	// Regions is the number of connected background regions visited.
	Regions int
	// NoOp is set when nothing was modified: the seed was a line pixel or
	// every target pixel already had its fill color.
	NoOp bool
}

// NeedsRedisplay reports whether the caller should re-upload the image.
func (r Result) NeedsRedisplay() bool {
	return r.Changed > 0
}

// Engine performs fills with fixed line-pixel thresholds.
// An Engine holds no per-buffer state and is safe for concurrent use on
// distinct buffers.
type Engine struct {
	maxChannel uint8
	minAlpha   uint8
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds sets the line classification: R, G, B all below
// maxChannel and alpha above minAlpha.
func WithThresholds(maxChannel, minAlpha uint8) Option {
	return func(e *Engine) {
		e.maxChannel = maxChannel
		e.minAlpha = minAlpha
	}
}

// WithConfig sets the thresholds from a config section.
func WithConfig(cfg engrave.FillConfig) Option {
	return WithThresholds(cfg.LineMaxChannel, cfg.LineMinAlpha)
}

// New creates an Engine with the default thresholds.
func New(opts ...Option) *Engine {
	def := engrave.DefaultConfig().Fill
	e := &Engine{maxChannel: def.LineMaxChannel, minAlpha: def.LineMinAlpha}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsLine reports whether an original-image color is line work.
func (e *Engine) IsLine(c color.NRGBA) bool {
	return c.R < e.maxChannel && c.G < e.maxChannel && c.B < e.maxChannel && c.A > e.minAlpha
}

// LineMask classifies every pixel of an original image.
func (e *Engine) LineMask(orig *engrave.Pixmap) []bool {
	data := orig.Data()
	mask := make([]bool, orig.Width()*orig.Height())
	for i := range mask {
		p := data[i*4 : i*4+4 : i*4+4]
		mask[i] = e.IsLine(color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
	}
	return mask
}

// Apply runs the fill described by req.
func (e *Engine) Apply(buf *engrave.RasterBuffer, req Request) (Result, error) {
	switch req.Mode {
	case ModeSeeded:
		return e.Seeded(buf, req.Pattern, req.SeedX, req.SeedY)
	default:
		if req.ExteriorOnly {
			return e.GlobalExterior(buf, req.Pattern)
		}
		return e.Global(buf, req.Pattern)
	}
}

// Global recolors every non-line pixel region. Background reachable from
// the border is discovered first, then each enclosed hole.
func (e *Engine) Global(buf *engrave.RasterBuffer, p Pattern) (Result, error) {
	return e.global(buf, p, false)
}

// GlobalExterior recolors only background reachable from the border.
func (e *Engine) GlobalExterior(buf *engrave.RasterBuffer, p Pattern) (Result, error) {
	return e.global(buf, p, true)
}

func (e *Engine) global(buf *engrave.RasterBuffer, p Pattern, exteriorOnly bool) (Result, error) {
	if buf == nil {
		return Result{}, ErrNilBuffer
	}
	if p == nil {
		return Result{}, ErrNilPattern
	}

	w, h := buf.Width(), buf.Height()
	g := newGrid(w, h, e.LineMask(buf.Original()))
	var res Result

	for x := 0; x < w; x++ {
		res.Regions += g.flood(x, 0)
		res.Regions += g.flood(x, h-1)
	}
	for y := 1; y < h-1; y++ {
		res.Regions += g.flood(0, y)
		res.Regions += g.flood(w-1, y)
	}
	if !exteriorOnly {
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				res.Regions += g.flood(x, y)
			}
		}
	}

	res.Changed = paint(buf.Current(), g.visited, p)
	res.NoOp = res.Changed == 0

	engrave.Logger().Debug("fill: global",
		"width", w, "height", h, "regions", res.Regions, "changed", res.Changed, "exterior_only", exteriorOnly)
	return res, nil
}

// Seeded recolors the region around (x, y). The region is bounded by the
// buffer edges and line pixels only; pixels that already carry their
// target color are passed through without being rewritten. A seed on a
// line pixel is a no-op.
func (e *Engine) Seeded(buf *engrave.RasterBuffer, p Pattern, x, y int) (Result, error) {
	if buf == nil {
		return Result{}, ErrNilBuffer
	}
	if p == nil {
		return Result{}, ErrNilPattern
	}
	w, h := buf.Width(), buf.Height()
	if !buf.Current().InBounds(x, y) {
		return Result{}, &OutOfBoundsError{X: x, Y: y, Width: w, Height: h}
	}

	g := newGrid(w, h, e.LineMask(buf.Original()))
	if g.flood(x, y) == 0 {
		return Result{NoOp: true}, nil
	}
	res := Result{Regions: 1, Changed: paint(buf.Current(), g.visited, p)}
	res.NoOp = res.Changed == 0

	engrave.Logger().Debug("fill: seeded", "x", x, "y", y, "changed", res.Changed)
	return res, nil
}

// paint writes the pattern into every marked pixel whose color differs and
// returns how many changed.
func paint(cur *engrave.Pixmap, marked []bool, p Pattern) int {
	w := cur.Width()
	n := 0
	for i, m := range marked {
		if !m {
			continue
		}
		x, y := i%w, i/w
		if c := p.ColorAt(x, y); cur.PixelAt(x, y) != c {
			cur.SetPixelAt(x, y, c)
			n++
		}
	}
	return n
}

// RepairLines copies line pixels from the original back into the current
// image, returning how many differed. Use it after restoring an external
// snapshot of unknown provenance.
func (e *Engine) RepairLines(buf *engrave.RasterBuffer) int {
	if buf == nil {
		return 0
	}
	orig, cur := buf.Original(), buf.Current()
	w := buf.Width()
	n := 0
	for i, line := range e.LineMask(orig) {
		if !line {
			continue
		}
		x, y := i%w, i/w
		if c := orig.PixelAt(x, y); cur.PixelAt(x, y) != c {
			cur.SetPixelAt(x, y, c)
			n++
		}
	}
	return n
}

// neighbors lists the 4-connected offsets.
var neighbors = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
