package attach

import (
	"log/slog"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/fill"
	"github.com/gogpu/engrave/layout"
)

// Option configures a Controller.
type Option func(*Controller)

// WithConfig sets every tunable from a loaded configuration.
func WithConfig(cfg engrave.Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger. The default is engrave.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithNoticeHandler receives non-fatal notices. It is called on the frame
// goroutine.
func WithNoticeHandler(fn func(Notice)) Option {
	return func(c *Controller) {
		c.onNotice = fn
	}
}

// WithFontService sets the font resolver for text decorations. The
// default is a glyphs.Resolver holding only the fallback font.
func WithFontService(f FontService) Option {
	return func(c *Controller) {
		c.fonts = f
	}
}

// WithLoader sets the pattern loader. The default is a resource.Loader
// built from the resource config.
func WithLoader(l RasterLoader) Option {
	return func(c *Controller) {
		c.loader = l
	}
}

// WithFillEngine overrides the fill engine built from the fill config.
func WithFillEngine(e *fill.Engine) Option {
	return func(c *Controller) {
		c.fill = e
	}
}

// WithLayouter overrides the text layouter built from the layout config.
func WithLayouter(l *layout.Layouter) Option {
	return func(c *Controller) {
		c.layout = l
	}
}

// WithFallbackColor sets the fill color used when a pattern fails to load.
func WithFallbackColor(col engrave.RGBA) Option {
	return func(c *Controller) {
		c.fallbackColor = col
	}
}

// WithStoreEcho declares that the store reports every accepted pose write
// back through PoseUpdated. The controller then keeps at most one write
// in flight per decoration and swallows the echo. Bind enables it.
func WithStoreEcho(echo bool) Option {
	return func(c *Controller) {
		c.echo = echo
	}
}
