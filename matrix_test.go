package engrave

import (
	"math"
	"testing"
)

func TestMatrixTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   Point
		want Point
	}{
		{"zero translate", Translate(0, 0), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, -2), Pt(1, 1), Pt(11, -1)},
		{"rotate 90", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
		{"rotate -90", Rotate(-math.Pi / 2), Pt(0, 1), Pt(1, 0)},
		{"translate after rotate", Translate(5, 0).Multiply(Rotate(math.Pi)), Pt(1, 0), Pt(4, 0)},
		{"rotate after translate", Rotate(math.Pi / 2).Multiply(Translate(1, 0)), Pt(1, 0), Pt(0, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.in)
			if math.Hypot(got.X-tt.want.X, got.Y-tt.want.Y) > 1e-12 {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatrixRotationsCompose(t *testing.T) {
	m := Rotate(0.3).Multiply(Rotate(0.5))
	want := Rotate(0.8)
	for _, d := range []float64{m.A - want.A, m.B - want.B, m.D - want.D, m.E - want.E, m.C, m.F} {
		if math.Abs(d) > 1e-12 {
			t.Fatalf("Rotate(0.3)*Rotate(0.5) = %+v, want %+v", m, want)
		}
	}
}
