package attach

import (
	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/glyphs"
	"github.com/gogpu/engrave/layout"
)

// SetText replaces the properties of a text decoration and lays it out
// again. A finish change also moves the decoration as SetFinish does.
func (c *Controller) SetText(id string, t engrave.TextPayload) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if it.text == nil {
		return ErrNoText
	}
	finish := it.text.Finish
	*it.text = t
	c.relayout(it)
	if t.Finish != finish {
		return c.SetFinish(id, t.Finish)
	}
	return nil
}

// GlyphRun returns the laid out characters of a text decoration and the
// outline font to draw them with.
func (c *Controller) GlyphRun(id string) (layout.Run, glyphs.Outline, error) {
	it, err := c.lookup(id)
	if err != nil {
		return layout.Run{}, glyphs.Outline{}, err
	}
	if it.text == nil {
		return layout.Run{}, glyphs.Outline{}, ErrNoText
	}
	return it.run, it.outline, nil
}

// relayout resolves the font, substituting the fallback font with a
// notice when needed, and recomputes the glyph run.
func (c *Controller) relayout(it *item) {
	t := it.text
	lines := layout.SplitLines(t.Text)
	var runes []rune
	for _, line := range lines {
		runes = append(runes, []rune(line)...)
	}

	fontID := t.FontID
	if fontID == "" {
		fontID = glyphs.FallbackID
	}
	widths, err := c.fonts.ResolveGlyphWidths(fontID, runes)
	var outline glyphs.Outline
	if err == nil {
		outline, err = c.fonts.ResolveOutline(fontID)
	}
	if err != nil && fontID != glyphs.FallbackID {
		c.log.Warn("attach: font unavailable, using fallback", "id", it.id, "font", fontID, "error", err)
		c.notify(Notice{Kind: NoticeFontFallback, DecorationID: it.id, Err: err})
		widths, err = c.fonts.ResolveGlyphWidths(glyphs.FallbackID, runes)
		if err == nil {
			outline, err = c.fonts.ResolveOutline(glyphs.FallbackID)
		}
	}
	if err != nil {
		// Uniform widths keep the text readable without any font.
		c.log.Warn("attach: fallback font unavailable", "id", it.id, "error", err)
		widths = layout.Uniform(c.cfg.Layout.DefaultWidth)
		outline = glyphs.Outline{}
	}

	it.outline = outline
	it.run = c.layout.Layout(lines, widths, layout.Options{
		Size:        t.Size,
		CharSpacing: t.CharSpacing,
		LineSpacing: t.LineSpacing,
		Align:       t.Align,
		Curvature:   t.Curvature,
	})
}
