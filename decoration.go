package engrave

// Kind identifies the payload type of a decoration.
type Kind uint8

const (
	// KindArt is a raster art pattern.
	KindArt Kind = iota
	// KindText is an inscription.
	KindText
)

// String returns the persisted name of the kind.
func (k Kind) String() string {
	switch k {
	case KindArt:
		return "art"
	case KindText:
		return "text"
	default:
		return unknownStr
	}
}

// ParseKind is the inverse of [Kind.String].
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "art":
		return KindArt, true
	case "text":
		return KindText, true
	}
	return 0, false
}

// FinishVariant is the surface treatment of an inscription. Each variant
// implies a different standoff from the host surface.
type FinishVariant uint8

const (
	// FinishFlush sits almost on the surface (paint, vinyl).
	FinishFlush FinishVariant = iota
	// FinishEtched is cut shallowly into the surface.
	FinishEtched
	// FinishRaised stands proud of the surface (raised or deep-engraved
	// letters with visible depth).
	FinishRaised
)

// String returns the persisted name of the finish.
func (f FinishVariant) String() string {
	switch f {
	case FinishFlush:
		return "flush"
	case FinishEtched:
		return "etched"
	case FinishRaised:
		return "raised"
	default:
		return unknownStr
	}
}

// ParseFinish is the inverse of [FinishVariant.String].
func ParseFinish(s string) (FinishVariant, bool) {
	switch s {
	case "flush":
		return FinishFlush, true
	case "etched":
		return FinishEtched, true
	case "raised":
		return FinishRaised, true
	}
	return 0, false
}

// Alignment specifies horizontal alignment of inscription lines.
type Alignment uint8

const (
	// AlignCenter centers every line on the block axis (default).
	AlignCenter Alignment = iota
	// AlignLeft aligns lines to the left edge of the widest line.
	AlignLeft
	// AlignRight aligns lines to the right edge of the widest line.
	AlignRight
)

// String returns the persisted name of the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return unknownStr
	}
}

// ParseAlignment is the inverse of [Alignment.String].
func ParseAlignment(s string) (Alignment, bool) {
	switch s {
	case "left":
		return AlignLeft, true
	case "center":
		return AlignCenter, true
	case "right":
		return AlignRight, true
	}
	return 0, false
}

const unknownStr = "unknown"

// ArtPayload is the content of an art decoration.
type ArtPayload struct {
	// Source is the path the art was loaded from.
	Source string
	// Raster holds the pixels. It is not persisted.
	Raster *RasterBuffer
}

// TextPayload is the content of an inscription.
type TextPayload struct {
	Text        string
	FontID      string
	Size        float64
	Align       Alignment
	LineSpacing float64
	CharSpacing float64
	// Curvature is in [-45, 45]; zero lays the text out flat.
	Curvature float64
	Finish    FinishVariant
}

// Decoration is a placed art or text item.
//
// Position and Rotation are local to the host when HostID is set and are
// the source of truth; the world pose is always derived from them.
type Decoration struct {
	ID     string
	HostID string
	Kind   Kind

	Position Vec3
	// Rotation holds XYZ Euler angles in radians.
	Rotation Vec3
	// Scale components may be negative to mirror the decoration.
	Scale Vec3

	Art  *ArtPayload
	Text *TextPayload
}

// Attached reports whether the decoration rides on a host surface.
func (d *Decoration) Attached() bool {
	return d.HostID != ""
}

// Finish returns the finish variant of a text decoration, or FinishFlush
// for art.
func (d *Decoration) Finish() FinishVariant {
	if d.Text == nil {
		return FinishFlush
	}
	return d.Text.Finish
}
