// Package engrave is the decoration attachment and rendering core of a 3D
// monument customizer.
//
// # Overview
//
// Decorations are small 2D items, raster art and inscribed text, placed on
// a host surface that can itself be moved, rotated and non-uniformly
// scaled. The core keeps each decoration's pose correct relative to its
// host, recolors art without disturbing its line work, and lays inscribed
// characters out along an arc.
//
// # Architecture
//
// The root package holds the shared primitives:
//   - Geometry: Vec3, Quat, Matrix, Point
//   - Pixels: RGBA, Pixmap, RasterBuffer
//   - Model: Decoration, TextPayload, ArtPayload
//   - Ambient: Config, SetLogger/Logger
//
// The algorithms live in leaf packages that only depend on the root:
//   - coord: local <-> world pose conversion
//   - fill: boundary-aware region recoloring
//   - layout: flat and curved glyph placement
//
// The attach package orchestrates them per frame against the host-asset
// provider and design-state store collaborators. glyphs, resource and
// design provide default implementations of those collaborators.
//
// # Coordinate System
//
// Host-local and world frames are right-handed with Y up. Euler angles are
// radians applied in XYZ order. Decoration planes use X right, Y up.
package engrave
