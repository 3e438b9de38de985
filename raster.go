package engrave

// RasterBuffer is the pixel content of an art decoration.
//
// It pairs an immutable original image, whose dark opaque pixels are
// permanent line work, with a current image that fills recolor in place.
// The original is shared read-only between clones; current is owned
// exclusively by one buffer.
type RasterBuffer struct {
	original *Pixmap
	current  *Pixmap
}

// NewRasterBuffer creates a buffer whose original is a private copy of src
// and whose current image starts identical to it.
func NewRasterBuffer(src *Pixmap) *RasterBuffer {
	if src == nil {
		src = NewPixmap(0, 0)
	}
	orig := src.Clone()
	return &RasterBuffer{original: orig, current: orig.Clone()}
}

// Width returns the width of the buffer in pixels.
func (b *RasterBuffer) Width() int { return b.original.width }

// Height returns the height of the buffer in pixels.
func (b *RasterBuffer) Height() int { return b.original.height }

// Original returns the reference image. It must not be modified.
func (b *RasterBuffer) Original() *Pixmap { return b.original }

// Current returns the recolorable image.
func (b *RasterBuffer) Current() *Pixmap { return b.current }

// Clone returns a buffer sharing the same original with its own copy of
// the current image.
func (b *RasterBuffer) Clone() *RasterBuffer {
	return &RasterBuffer{original: b.original, current: b.current.Clone()}
}

// Reset discards all recoloring.
func (b *RasterBuffer) Reset() {
	b.current.CopyFrom(b.original)
}

// Snapshot returns a copy of the current image, suitable for handing to a
// design-state store.
func (b *RasterBuffer) Snapshot() *Pixmap {
	return b.current.Clone()
}

// Restore replaces the current image with snap, typically a snapshot taken
// earlier by an undo history. It reports false if the dimensions differ.
func (b *RasterBuffer) Restore(snap *Pixmap) bool {
	return b.current.CopyFrom(snap)
}
