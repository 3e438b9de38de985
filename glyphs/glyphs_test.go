package glyphs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

func newResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := NewResolver(opts...)
	require.NoError(t, err)
	return r
}

func TestFallbackRegistered(t *testing.T) {
	r := newResolver(t)
	assert.True(t, r.Has(FallbackID))
	assert.Equal(t, []string{FallbackID}, r.IDs())

	family, err := r.Family(FallbackID)
	require.NoError(t, err)
	assert.Equal(t, "Go", family)
}

func TestResolveGlyphWidths(t *testing.T) {
	r := newResolver(t, WithDefaultWidth(0.5))
	table, err := r.ResolveGlyphWidths(FallbackID, []rune("Wil\U0010FFFF"))
	require.NoError(t, err)

	w, i := table.Advance('W'), table.Advance('i')
	assert.Greater(t, w, i, "W is wider than i in a proportional font")
	assert.Greater(t, i, 0.0)
	assert.Less(t, w, 1.5)

	_, mapped := table.Widths['\U0010FFFF']
	assert.False(t, mapped)
	assert.Equal(t, 0.5, table.Advance('\U0010FFFF'))

	// cached path returns the same values
	again, err := r.ResolveGlyphWidths(FallbackID, []rune("Wi"))
	require.NoError(t, err)
	assert.Equal(t, w, again.Advance('W'))
}

func TestMonospaceWidths(t *testing.T) {
	r := newResolver(t)
	require.NoError(t, r.Register("mono", gomono.TTF))

	table, err := r.ResolveGlyphWidths("mono", []rune("iW.m"))
	require.NoError(t, err)
	for _, ch := range "W.m" {
		assert.InDelta(t, table.Advance('i'), table.Advance(ch), 1e-9, "%q", ch)
	}
}

func TestUnknownFont(t *testing.T) {
	r := newResolver(t)
	_, err := r.ResolveGlyphWidths("nope", []rune("a"))
	assert.ErrorIs(t, err, ErrUnknownFont)
	_, err = r.ResolveOutline("nope")
	assert.ErrorIs(t, err, ErrUnknownFont)
	assert.False(t, r.Has("nope"))
}

func TestRegisterErrors(t *testing.T) {
	r := newResolver(t)
	assert.ErrorIs(t, r.Register("x", nil), ErrEmptyFontData)

	err := r.Register("bad", []byte("not a font at all"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad", pe.FontID)
	assert.False(t, r.Has("bad"))
}

func TestRegisterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o600))

	r := newResolver(t)
	require.NoError(t, r.RegisterFile("serif", path))
	assert.True(t, r.Has("serif"))
	assert.Error(t, r.RegisterFile("missing", filepath.Join(t.TempDir(), "none.ttf")))
}

func TestReplaceClearsWidths(t *testing.T) {
	r := newResolver(t)
	require.NoError(t, r.Register("f", goregular.TTF))
	prop, err := r.ResolveGlyphWidths("f", []rune("i"))
	require.NoError(t, err)

	require.NoError(t, r.Register("f", gomono.TTF))
	mono, err := r.ResolveGlyphWidths("f", []rune("i"))
	require.NoError(t, err)
	assert.NotEqual(t, prop.Advance('i'), mono.Advance('i'))
}

func TestReplaceIgnoresStaleWidths(t *testing.T) {
	r := newResolver(t)
	require.NoError(t, r.Register("f", goregular.TTF))
	old, err := r.lookup("f")
	require.NoError(t, err)
	prop, err := r.ResolveGlyphWidths("f", []rune("i"))
	require.NoError(t, err)

	require.NoError(t, r.Register("f", gomono.TTF))
	// A resolve that started on the old font finishes after the swap.
	r.widths.Set(widthKey{gen: old.gen, r: 'i'}, prop.Advance('i'))

	mono, err := r.ResolveGlyphWidths("f", []rune("i"))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, mono.Advance('i'), 0.01)
	assert.NotEqual(t, prop.Advance('i'), mono.Advance('i'))
}

func TestOutline(t *testing.T) {
	r := newResolver(t)
	o, err := r.ResolveOutline(FallbackID)
	require.NoError(t, err)
	require.True(t, o.Valid())
	assert.Equal(t, "Go", o.Family)

	_, ok := o.Glyph('A')
	assert.True(t, ok)
	_, ok = o.Glyph('\U0010FFFF')
	assert.False(t, ok)
	assert.False(t, Outline{}.Valid())
	assert.Nil(t, Outline{}.Face())
}

func TestShapeMatchesWidths(t *testing.T) {
	r := newResolver(t)
	o, err := r.ResolveOutline(FallbackID)
	require.NoError(t, err)

	table, err := r.ResolveGlyphWidths(FallbackID, []rune("HI"))
	require.NoError(t, err)

	glyphs := o.Shape("HI")
	require.Len(t, glyphs, 2)
	assert.Equal(t, 0, glyphs[0].Cluster)
	assert.Equal(t, 1, glyphs[1].Cluster)
	assert.InDelta(t, table.Advance('H')+table.Advance('I'), o.ShapedWidth("HI"), 0.01)
	assert.Nil(t, o.Shape(""))
}
