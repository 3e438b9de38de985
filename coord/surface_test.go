package coord

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gogpu/engrave"
)

func TestDefaultSurfaceOffsetTiers(t *testing.T) {
	const thickness = 0.2

	flush := DefaultSurfaceOffset(thickness, engrave.FinishFlush)
	etched := DefaultSurfaceOffset(thickness, engrave.FinishEtched)
	raised := DefaultSurfaceOffset(thickness, engrave.FinishRaised)

	// All sit beyond the front plane, the raised finish furthest out.
	assert.Less(t, flush, -thickness/2)
	assert.Less(t, etched, flush)
	assert.Less(t, raised, etched)

	cfg := engrave.DefaultConfig().Surface
	assert.InDelta(t, -0.1-cfg.BiasRaised, raised, 1e-12)
}

func TestSurfaceOffsetBadThickness(t *testing.T) {
	s := NewSurface(engrave.SurfaceConfig{BiasFlush: 0.01, BiasEtched: 0.02, BiasRaised: 0.03})

	for _, th := range []float64{math.NaN(), math.Inf(1), -1} {
		got := s.Offset(th, engrave.FinishEtched)
		assert.InDelta(t, -0.02, got, 1e-12, "thickness %v", th)
	}
	assert.InDelta(t, 0.01, s.Bias(engrave.FinishVariant(99)), 1e-12)
}

func TestThickness(t *testing.T) {
	th, ok := Thickness(engrave.V3(2, 3, 0.25))
	assert.True(t, ok)
	assert.Equal(t, 0.25, th)

	_, ok = Thickness(engrave.V3(1, 1, 0))
	assert.False(t, ok)
	_, ok = Thickness(engrave.V3(1, 1, math.NaN()))
	assert.False(t, ok)
}
