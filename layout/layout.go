// Package layout places inscription characters on a straight line or a
// circular arc.
//
// Positions are in the decoration plane, X right and Y up, with the block
// centered on the origin. Widths come from a [WidthTable] in em units and
// are scaled by the font size. Curvature is a signed amount in
// [-MaxCurvature, MaxCurvature]; zero gives flat text, positive values bow
// the text upward and negative values downward.
package layout

import (
	"math"
	"unicode"

	"github.com/gogpu/engrave"
)

// Options are the text properties that affect placement.
type Options struct {
	// Size is the font size; all em quantities are multiplied by it.
	Size float64
	// CharSpacing is extra space between characters, in em.
	CharSpacing float64
	// LineSpacing multiplies Size to get the line pitch. Values <= 0 mean 1.
	LineSpacing float64
	// Align applies to flat layout only; arcs are always centered.
	Align engrave.Alignment
	// Curvature selects flat (0) or arc layout.
	Curvature float64
}

// Placement is the pose of one character.
type Placement struct {
	Rune rune
	// Line and Index locate the character in the input.
	Line, Index int
	// X, Y, Z is the character center; Z is always zero.
	X, Y, Z float64
	// Rotation is the counter-clockwise angle about the plane normal.
	Rotation float64
	// Advance is the scaled width consumed by the character.
	Advance float64
	// Visible is false for whitespace and control characters, which take
	// up space but draw nothing.
	Visible bool
}

// Transform returns the placement as an affine matrix.
func (p Placement) Transform() engrave.Matrix {
	return engrave.Translate(p.X, p.Y).Multiply(engrave.Rotate(p.Rotation))
}

// LineInfo summarizes one laid out line.
type LineInfo struct {
	// Width is the sum of advances plus spacing between characters.
	Width float64
	// Radius and Sweep describe the arc; both are zero for flat lines.
	Radius float64
	Sweep  float64
}

// Run is the glyph run for a block of text.
type Run struct {
	Placements []Placement
	Lines      []LineInfo
	// ArcAngle is the requested arc for the curvature, zero when flat.
	ArcAngle float64
}

// Curved reports whether the run lies on arcs.
func (r Run) Curved() bool {
	return r.ArcAngle != 0
}

// Bounds returns the axis-aligned box covering every glyph cell. A cell is
// the placement's advance wide and size tall, centered on the placement
// and turned with it, so glyphs on an arc contribute their rotated corners.
func (r Run) Bounds(size float64) (minPt, maxPt engrave.Point) {
	if len(r.Placements) == 0 {
		return engrave.Point{}, engrave.Point{}
	}
	minPt = engrave.Pt(math.Inf(1), math.Inf(1))
	maxPt = engrave.Pt(math.Inf(-1), math.Inf(-1))
	for _, p := range r.Placements {
		m := p.Transform()
		hw, hh := p.Advance/2, size/2
		for _, c := range [4]engrave.Point{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}} {
			q := m.TransformPoint(c)
			minPt.X, minPt.Y = math.Min(minPt.X, q.X), math.Min(minPt.Y, q.Y)
			maxPt.X, maxPt.Y = math.Max(maxPt.X, q.X), math.Max(maxPt.Y, q.Y)
		}
	}
	return minPt, maxPt
}

// Layouter computes glyph runs. It is stateless apart from its
// configuration and safe for concurrent use.
type Layouter struct {
	cfg engrave.LayoutConfig
}

// Option configures a Layouter.
type Option func(*Layouter)

// WithConfig sets the curvature bounds.
func WithConfig(cfg engrave.LayoutConfig) Option {
	return func(l *Layouter) {
		l.cfg = cfg
	}
}

// New creates a Layouter with the default curvature bounds.
func New(opts ...Option) *Layouter {
	l := &Layouter{cfg: engrave.DefaultConfig().Layout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxCurvature returns the magnitude at which the arc stops growing.
func (l *Layouter) MaxCurvature() float64 {
	return l.cfg.MaxCurvature
}

// ArcAngle maps a curvature amount onto the arc spanned by a line, in
// radians. Zero maps to zero; any other magnitude maps linearly from MinArc
// up to MaxArc, reached at MaxCurvature and held beyond it.
func (l *Layouter) ArcAngle(curvature float64) float64 {
	if curvature == 0 || math.IsNaN(curvature) || l.cfg.MaxCurvature <= 0 {
		return 0
	}
	t := math.Min(math.Abs(curvature)/l.cfg.MaxCurvature, 1)
	return l.cfg.MinArc + t*(l.cfg.MaxArc-l.cfg.MinArc)
}

// Layout places lines flat when opts.Curvature is zero and on arcs
// otherwise.
func (l *Layouter) Layout(lines []string, widths WidthTable, opts Options) Run {
	if l.ArcAngle(opts.Curvature) == 0 {
		return l.Linear(lines, widths, opts)
	}
	return l.Arc(lines, widths, opts)
}

// Linear lays characters left to right and aligns every line within the
// widest one.
func (l *Layouter) Linear(lines []string, widths WidthTable, opts Options) Run {
	ms := measure(lines, widths, opts)
	run := Run{Lines: make([]LineInfo, len(ms))}

	maxWidth := 0.0
	for _, m := range ms {
		maxWidth = math.Max(maxWidth, m.width)
	}

	for i, m := range ms {
		run.Lines[i] = LineInfo{Width: m.width}
		shift := alignOffset(opts.Align, m.width, maxWidth) - m.width/2
		y := baseline(i, len(ms), opts)
		for j, c := range m.chars {
			run.Placements = append(run.Placements, Placement{
				Rune:    c.r,
				Line:    i,
				Index:   j,
				X:       c.center + shift,
				Y:       y,
				Advance: c.advance,
				Visible: visible(c.r),
			})
		}
	}
	return run
}

// Arc bends every line around a circle. The radius is chosen so the line
// spans ArcAngle, but never drops below half the line length, which keeps
// gentle curvatures well conditioned and caps the sweep at 2 radians.
func (l *Layouter) Arc(lines []string, widths WidthTable, opts Options) Run {
	arc := l.ArcAngle(opts.Curvature)
	if arc == 0 {
		return l.Linear(lines, widths, opts)
	}
	dir := 1.0
	if opts.Curvature < 0 {
		dir = -1
	}

	ms := measure(lines, widths, opts)
	run := Run{Lines: make([]LineInfo, len(ms)), ArcAngle: arc}
	spacing := opts.CharSpacing * opts.Size

	for i, m := range ms {
		y := baseline(i, len(ms), opts)
		if m.width <= 0 {
			for j, c := range m.chars {
				run.Placements = append(run.Placements, Placement{
					Rune: c.r, Line: i, Index: j, Y: y, Visible: visible(c.r),
				})
			}
			continue
		}

		radius := math.Max(m.width/arc, m.width*0.5)
		sweep := m.width / radius
		run.Lines[i] = LineInfo{Width: m.width, Radius: radius, Sweep: sweep}

		angle := -sweep / 2
		for j, c := range m.chars {
			a := angle + c.advance/2/radius
			run.Placements = append(run.Placements, Placement{
				Rune:     c.r,
				Line:     i,
				Index:    j,
				X:        math.Sin(a) * radius,
				Y:        (math.Cos(a)-1)*radius*dir + y,
				Rotation: -a * dir,
				Advance:  c.advance,
				Visible:  visible(c.r),
			})
			angle += (c.advance + spacing) / radius
		}
	}
	return run
}

type measuredChar struct {
	r       rune
	advance float64
	// center is the flat x of the character center from the line start.
	center float64
}

type measuredLine struct {
	chars []measuredChar
	width float64
}

func measure(lines []string, widths WidthTable, opts Options) []measuredLine {
	spacing := opts.CharSpacing * opts.Size
	out := make([]measuredLine, len(lines))
	for i, line := range lines {
		var m measuredLine
		x := 0.0
		for _, r := range line {
			adv := widths.Advance(r) * opts.Size
			m.chars = append(m.chars, measuredChar{r: r, advance: adv, center: x + adv/2})
			x += adv + spacing
		}
		if len(m.chars) > 0 {
			m.width = math.Max(x-spacing, 0)
		}
		out[i] = m
	}
	return out
}

// alignOffset returns where the center of a line of the given width goes.
func alignOffset(align engrave.Alignment, width, maxWidth float64) float64 {
	switch align {
	case engrave.AlignLeft:
		return -maxWidth/2 + width/2
	case engrave.AlignRight:
		return maxWidth/2 - width/2
	default:
		return 0
	}
}

// baseline centers the block of n lines vertically; line 0 is on top.
func baseline(i, n int, opts Options) float64 {
	pitch := opts.LineSpacing
	if pitch <= 0 {
		pitch = 1
	}
	pitch *= opts.Size
	return (float64(n-1)/2 - float64(i)) * pitch
}

func visible(r rune) bool {
	return !unicode.IsSpace(r) && unicode.IsGraphic(r)
}
