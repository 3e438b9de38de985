package attach

import (
	"context"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/coord"
	"github.com/gogpu/engrave/glyphs"
	"github.com/gogpu/engrave/layout"
)

// HostProvider reports host surfaces as they load.
type HostProvider interface {
	// WorldTransform returns the current world transform of a host, or
	// false while the host is not loaded.
	WorldTransform(hostID string) (coord.HostTransform, bool)
	// BoundingSize returns the host's local bounding size, or false while
	// it is unknown.
	BoundingSize(hostID string) (engrave.Vec3, bool)
	// Ready returns a channel closed exactly once when the host's
	// transform and bounds become available.
	Ready(hostID string) <-chan struct{}
}

// Store is the design state the controller writes local poses and
// rasters to.
type Store interface {
	SetDecorationLocalPose(id string, pos, rot engrave.Vec3) error
	SetDecorationRaster(id string, pm *engrave.Pixmap) error
	Decorations() []engrave.Decoration
}

// Node is the renderable object of one decoration.
type Node interface {
	WorldPose() coord.WorldPose
	SetWorldPose(coord.WorldPose)
}

// FontService resolves font ids for text decorations.
type FontService interface {
	ResolveGlyphWidths(fontID string, runes []rune) (layout.WidthTable, error)
	ResolveOutline(fontID string) (glyphs.Outline, error)
}

// RasterLoader loads pattern images in the background. done may be called
// from any goroutine.
type RasterLoader interface {
	LoadAsync(ctx context.Context, path string, done func(*engrave.Pixmap, error))
}
