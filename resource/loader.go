// Package resource loads raster images used as decoration art and fill
// patterns.
//
// Files are sniffed by content, decoded, and scaled down when larger than
// the configured maximum. Decoded pixmaps are cached per Loader; callers
// always receive their own copy.
package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/internal/cache"
)

// Sentinel errors for the resource package.
var (
	// ErrEmptyPath is returned when no path is given.
	ErrEmptyPath = errors.New("resource: empty path")

	// ErrLoaderClosed is returned after Close.
	ErrLoaderClosed = errors.New("resource: loader closed")
)

// FormatError is returned for files that are not a supported image.
type FormatError struct {
	Path string
	// MIME is the sniffed type, empty when unknown.
	MIME string
}

func (e *FormatError) Error() string {
	if e.MIME == "" {
		return fmt.Sprintf("resource: %s: unrecognized format", e.Path)
	}
	return fmt.Sprintf("resource: %s: unsupported format %s", e.Path, e.MIME)
}

// Loader reads and caches images. It is safe for concurrent use.
type Loader struct {
	maxDim   int
	cache    *cache.Cache[string, *engrave.Pixmap]
	group    singleflight.Group
	onChange func(path string)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithConfig applies a resource config section.
func WithConfig(cfg engrave.ResourceConfig) Option {
	return func(l *Loader) {
		l.maxDim = cfg.MaxRasterDimension
		l.cache = cache.New[string, *engrave.Pixmap](cfg.CacheEntries)
	}
}

// WithMaxDimension bounds the longer side of decoded images. Zero
// disables scaling.
func WithMaxDimension(n int) Option {
	return func(l *Loader) {
		l.maxDim = n
	}
}

// WithChangeHandler registers fn to be called, from the watch goroutine,
// when a watched file changes on disk.
func WithChangeHandler(fn func(path string)) Option {
	return func(l *Loader) {
		l.onChange = fn
	}
}

// NewLoader creates a Loader with the default configuration.
func NewLoader(opts ...Option) *Loader {
	cfg := engrave.DefaultConfig().Resource
	l := &Loader{
		maxDim: cfg.MaxRasterDimension,
		cache:  cache.New[string, *engrave.Pixmap](cfg.CacheEntries),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the image at path. Concurrent loads of one path share a
// single read.
func (l *Loader) Load(ctx context.Context, path string) (*engrave.Pixmap, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, ErrLoaderClosed
	}
	key := filepath.Clean(path)
	if pm, ok := l.cache.Get(key); ok {
		return pm.Clone(), nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		pm, err := l.readFile(key)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, pm)
		l.watch(key)
		return pm, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*engrave.Pixmap).Clone(), nil
	}
}

// LoadAsync loads path on a new goroutine and passes the result to done.
func (l *Loader) LoadAsync(ctx context.Context, path string, done func(*engrave.Pixmap, error)) {
	go func() {
		pm, err := l.Load(ctx, path)
		done(pm, err)
	}()
}

// Invalidate drops path from the cache.
func (l *Loader) Invalidate(path string) bool {
	return l.cache.Delete(filepath.Clean(path))
}

// CacheStats reports cache usage.
func (l *Loader) CacheStats() cache.Stats {
	return l.cache.Stats()
}

func (l *Loader) readFile(path string) (*engrave.Pixmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	pm, err := l.Decode(data)
	var fe *FormatError
	if errors.As(err, &fe) {
		fe.Path = path
	}
	if err != nil {
		return nil, err
	}
	engrave.Logger().Debug("resource: loaded", "path", path, "width", pm.Width(), "height", pm.Height())
	return pm, nil
}

// Decode sniffs and decodes image bytes.
func (l *Loader) Decode(data []byte) (*engrave.Pixmap, error) {
	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		return nil, &FormatError{}
	}
	if !filetype.IsImage(data) {
		return nil, &FormatError{MIME: kind.MIME.Value}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, &FormatError{MIME: kind.MIME.Value}
		}
		return nil, fmt.Errorf("resource: decode %s: %w", kind.MIME.Value, err)
	}
	return engrave.FromImage(fitWithin(img, l.maxDim)), nil
}
