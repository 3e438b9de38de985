// Package glyphs resolves font ids to width tables and outline handles.
//
// Fonts are registered by id from raw TrueType or OpenType bytes. Widths
// are read with golang.org/x/image/font/sfnt and expressed in em units,
// ready for the layout package. Outlines wrap a go-text font for the
// renderer that turns glyph runs into geometry.
//
// A Resolver always knows the embedded Go Regular font under [FallbackID],
// so callers can substitute it when a requested font is missing.
package glyphs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/internal/cache"
	"github.com/gogpu/engrave/layout"
)

// FallbackID is the id under which the embedded Go Regular font is
// registered.
const FallbackID = "go-regular"

// Sentinel errors for the glyphs package.
var (
	// ErrUnknownFont is returned for ids that were never registered.
	ErrUnknownFont = errors.New("glyphs: unknown font")

	// ErrEmptyFontData is returned when registering zero bytes.
	ErrEmptyFontData = errors.New("glyphs: empty font data")
)

// ParseError wraps a font that failed to parse.
type ParseError struct {
	FontID string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("glyphs: parse font %q: %v", e.FontID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// entry is one registered font, parsed by both libraries.
type entry struct {
	id     string
	gen    uint64
	family string
	sfnt   *opentype.Font
	gotext *font.Font
	upem   float64
}

// widthKey includes the entry generation so that widths measured on a
// replaced font are never served for its successor.
type widthKey struct {
	gen uint64
	r   rune
}

// Resolver maps font ids to fonts. It is safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	fonts map[string]*entry
	gen   uint64

	defaultWidth float64
	widths       *cache.Cache[widthKey, float64]
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultWidth sets the em advance used for characters a font lacks.
func WithDefaultWidth(w float64) Option {
	return func(r *Resolver) {
		r.defaultWidth = w
	}
}

// WithCacheSize bounds the number of cached per-character widths.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		r.widths = cache.New[widthKey, float64](n)
	}
}

// NewResolver creates a Resolver with the fallback font registered.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		fonts:        make(map[string]*entry),
		defaultWidth: engrave.DefaultConfig().Layout.DefaultWidth,
		widths:       cache.New[widthKey, float64](4096),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Register(FallbackID, goregular.TTF); err != nil {
		return nil, err
	}
	return r, nil
}

// Register parses data and stores it under id, replacing any previous
// font with that id.
func (r *Resolver) Register(id string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFontData
	}
	sf, err := opentype.Parse(data)
	if err != nil {
		return &ParseError{FontID: id, Err: err}
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return &ParseError{FontID: id, Err: err}
	}

	e := &entry{id: id, sfnt: sf, gotext: face.Font, upem: float64(sf.UnitsPerEm())}
	if name, err := sf.Name(nil, sfnt.NameIDFamily); err == nil && name != "" {
		e.family = name
	} else {
		e.family = id
	}

	r.mu.Lock()
	r.gen++
	e.gen = r.gen
	old, replaced := r.fonts[id]
	r.fonts[id] = e
	r.mu.Unlock()

	if replaced {
		r.forget(old)
	}
	engrave.Logger().Debug("glyphs: registered font", "id", id, "family", e.family, "replaced", replaced)
	return nil
}

// RegisterFile reads a font file and registers it under id.
func (r *Resolver) RegisterFile(id, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("glyphs: read font %q: %w", id, err)
	}
	return r.Register(id, data)
}

// IDs returns the registered font ids in sorted order.
func (r *Resolver) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.fonts))
	for id := range r.fonts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether id is registered.
func (r *Resolver) Has(id string) bool {
	_, err := r.lookup(id)
	return err == nil
}

// Family returns the family name recorded in the font, or its id.
func (r *Resolver) Family(id string) (string, error) {
	e, err := r.lookup(id)
	if err != nil {
		return "", err
	}
	return e.family, nil
}

func (r *Resolver) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.fonts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFont, id)
	}
	return e, nil
}

// ResolveGlyphWidths returns em advances for runes in the font. Runes the
// font has no glyph for are left to the table default.
func (r *Resolver) ResolveGlyphWidths(fontID string, runes []rune) (layout.WidthTable, error) {
	e, err := r.lookup(fontID)
	if err != nil {
		return layout.WidthTable{}, err
	}

	table := layout.WidthTable{Widths: make(map[rune]float64, len(runes)), Default: r.defaultWidth}
	var buf sfnt.Buffer
	for _, ch := range runes {
		if _, done := table.Widths[ch]; done {
			continue
		}
		key := widthKey{gen: e.gen, r: ch}
		if w, ok := r.widths.Get(key); ok {
			if w >= 0 {
				table.Widths[ch] = w
			}
			continue
		}
		w := e.advance(&buf, ch)
		// -1 caches a missing glyph.
		r.widths.Set(key, w)
		if w >= 0 {
			table.Widths[ch] = w
		}
	}
	return table, nil
}

// forget drops the cached widths of a replaced entry. Late writers keyed
// on its generation are unreachable and age out of the cache.
func (r *Resolver) forget(old *entry) {
	r.widths.DeleteFunc(func(k widthKey) bool { return k.gen == old.gen })
}

// advance returns the em advance of ch, or -1 if the font lacks it.
func (e *entry) advance(buf *sfnt.Buffer, ch rune) float64 {
	idx, err := e.sfnt.GlyphIndex(buf, ch)
	if err != nil || idx == 0 {
		return -1
	}
	// At ppem == unitsPerEm the advance comes back in font units.
	adv, err := e.sfnt.GlyphAdvance(buf, idx, fixedUnits(e.upem), hintingNone)
	if err != nil || e.upem <= 0 {
		return -1
	}
	return fixedToFloat(adv) / e.upem
}

// ResolveOutline returns the outline handle for a font.
func (r *Resolver) ResolveOutline(fontID string) (Outline, error) {
	e, err := r.lookup(fontID)
	if err != nil {
		return Outline{}, err
	}
	return Outline{FontID: e.id, Family: e.family, font: e.gotext}, nil
}
