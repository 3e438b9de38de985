package coord

import (
	"math"

	"github.com/gogpu/engrave"
)

// Surface derives default placements on a host from its local bounding
// size. The zero value is not usable; use [NewSurface].
type Surface struct {
	biases [3]float64
}

// NewSurface creates a Surface from the standoff tiers in cfg.
func NewSurface(cfg engrave.SurfaceConfig) Surface {
	return Surface{biases: [3]float64{
		engrave.FinishFlush:  cfg.BiasFlush,
		engrave.FinishEtched: cfg.BiasEtched,
		engrave.FinishRaised: cfg.BiasRaised,
	}}
}

// Bias returns the standoff for a finish variant. Unknown variants get the
// flush tier.
func (s Surface) Bias(finish engrave.FinishVariant) float64 {
	if int(finish) >= len(s.biases) {
		return s.biases[engrave.FinishFlush]
	}
	return s.biases[finish]
}

// Offset returns the local Z at which a new decoration should sit: the
// host's front plane at -thickness/2, pushed outward by the finish bias.
// Non-finite or negative thickness is treated as zero.
func (s Surface) Offset(thickness float64, finish engrave.FinishVariant) float64 {
	if math.IsNaN(thickness) || math.IsInf(thickness, 0) || thickness < 0 {
		thickness = 0
	}
	return -thickness/2 - s.Bias(finish)
}

// Thickness extracts the local thickness (Z extent) from a bounding size.
// It reports false while the size is unknown or degenerate.
func Thickness(size engrave.Vec3) (float64, bool) {
	if !size.IsFinite() || size.Z <= 0 {
		return 0, false
	}
	return size.Z, true
}

var defaultSurface = NewSurface(engrave.DefaultConfig().Surface)

// DefaultSurfaceOffset is [Surface.Offset] with the built-in standoff tiers.
func DefaultSurfaceOffset(thickness float64, finish engrave.FinishVariant) float64 {
	return defaultSurface.Offset(thickness, finish)
}

// Lookup resolves the transform of hostID through get. An empty hostID
// yields a nil transform (identity conversion); an unknown host yields
// ErrHostUnavailable.
func Lookup(hostID string, get func(string) (HostTransform, bool)) (*HostTransform, error) {
	if hostID == "" {
		return nil, nil
	}
	h, ok := get(hostID)
	if !ok {
		return nil, ErrHostUnavailable
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}
