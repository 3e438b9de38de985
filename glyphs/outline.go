package glyphs

import (
	"math"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const hintingNone = xfont.HintingNone

// Outline is a handle to a parsed font used to build glyph geometry.
// The zero Outline is invalid.
type Outline struct {
	FontID string
	Family string
	font   *font.Font
}

// Valid reports whether the handle refers to a font.
func (o Outline) Valid() bool {
	return o.font != nil
}

// Face returns a new go-text face. Faces are not safe for concurrent use,
// so callers take one per goroutine.
func (o Outline) Face() *font.Face {
	if o.font == nil {
		return nil
	}
	return font.NewFace(o.font)
}

// Glyph returns the glyph id for r and whether the font maps it.
func (o Outline) Glyph(r rune) (font.GID, bool) {
	face := o.Face()
	if face == nil {
		return 0, false
	}
	return face.NominalGlyph(r)
}

// ShapedGlyph is one glyph of a shaped line.
type ShapedGlyph struct {
	GID font.GID
	// Cluster is the rune index the glyph came from.
	Cluster int
	// Advance and XOffset are in em units.
	Advance float64
	XOffset float64
}

var shaperPool = sync.Pool{
	New: func() any {
		return &shaping.HarfbuzzShaper{}
	},
}

// Shape runs HarfBuzz shaping over one line and returns kerning-aware
// advances. Shaping happens at one em so results scale with font size.
func (o Outline) Shape(line string) []ShapedGlyph {
	runes := []rune(line)
	if len(runes) == 0 || o.font == nil {
		return nil
	}
	face := font.NewFace(o.font)
	upem := float64(face.Upem())
	if upem <= 0 {
		return nil
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      fixedUnits(upem),
		Script:    scriptOf(runes),
		Language:  language.NewLanguage("en"),
	}
	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	shaperPool.Put(hb)

	glyphs := make([]ShapedGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = ShapedGlyph{
			GID:     g.GlyphID,
			Cluster: g.TextIndex(),
			Advance: fixedToFloat(g.Advance) / upem,
			XOffset: fixedToFloat(g.XOffset) / upem,
		}
	}
	return glyphs
}

// ShapedWidth returns the total em advance of a shaped line.
func (o Outline) ShapedWidth(line string) float64 {
	w := 0.0
	for _, g := range o.Shape(line) {
		w += g.Advance
	}
	return w
}

func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedUnits(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
