// Package coord converts decoration poses between the local frame of a
// host surface and the world frame.
//
// A host transform is applied as scale, then rotation, then translation.
// Decoration orientation additionally passes through a fixed 180 degree
// turn about the host's up axis: host assets are authored with their front
// face pointing away from the world-forward convention.
//
// All functions are pure. Failures are reported as errors and never as
// NaN-filled results.
package coord

import (
	"errors"

	"github.com/gogpu/engrave"
)

// Sentinel errors for coordinate conversion.
var (
	// ErrHostUnavailable is returned when a decoration names a host whose
	// transform cannot be read yet. Callers should retry once it loads.
	ErrHostUnavailable = errors.New("coord: host transform unavailable")

	// ErrDegenerateHost is returned when a host scale component is
	// (nearly) zero or the transform is not finite.
	ErrDegenerateHost = errors.New("coord: degenerate host transform")

	// ErrNonFinite is returned when a conversion produced NaN or Inf.
	ErrNonFinite = errors.New("coord: non-finite pose")

	// ErrRoundTrip is returned by [CheckRoundTrip] when converting back
	// does not reproduce the input within tolerance.
	ErrRoundTrip = errors.New("coord: round trip mismatch")
)

// minScale is the smallest usable host scale magnitude.
const minScale = 1e-9

// flipY is the 180 degree rotation about +Y: (0, sin(pi/2), 0, cos(pi/2))
// written out exactly so the convention holds bit for bit.
var flipY = engrave.Quat{X: 0, Y: 1, Z: 0, W: 0}

// HostTransform is the world transform of a host surface.
type HostTransform struct {
	Position engrave.Vec3
	Rotation engrave.Quat
	Scale    engrave.Vec3
}

// Validate reports ErrDegenerateHost if the transform cannot be inverted.
func (h HostTransform) Validate() error {
	if !h.Position.IsFinite() || !h.Rotation.IsFinite() || !h.Scale.IsFinite() {
		return ErrDegenerateHost
	}
	if h.Scale.MinAbs() < minScale || h.Rotation.LengthSq() < minScale {
		return ErrDegenerateHost
	}
	return nil
}

// Pose is a decoration pose local to its host: position in host units and
// XYZ Euler rotation in radians.
type Pose struct {
	Position engrave.Vec3
	Rotation engrave.Vec3
}

// WorldPose is a derived world-space pose.
type WorldPose struct {
	Position engrave.Vec3
	Rotation engrave.Quat
}

// ToWorld projects a local pose into world space. A nil host means the
// decoration floats in world space and the pose is returned unchanged.
func ToWorld(local Pose, host *HostTransform) (WorldPose, error) {
	if host == nil {
		return checkWorld(WorldPose{Position: local.Position, Rotation: engrave.QuatFromEuler(local.Rotation)})
	}
	if err := host.Validate(); err != nil {
		return WorldPose{}, err
	}

	hq := host.Rotation.Normalize()
	return checkWorld(WorldPose{
		Position: hq.Rotate(local.Position.MulVec(host.Scale)).Add(host.Position),
		Rotation: hq.Mul(flipY).Mul(engrave.QuatFromEuler(local.Rotation)).Normalize(),
	})
}

// ToLocal is the exact inverse of [ToWorld].
func ToLocal(world WorldPose, host *HostTransform) (Pose, error) {
	if host == nil {
		return checkLocal(Pose{Position: world.Position, Rotation: world.Rotation.Normalize().Euler()})
	}
	if err := host.Validate(); err != nil {
		return Pose{}, err
	}

	hq := host.Rotation.Normalize()
	inv := hq.Conjugate()
	return checkLocal(Pose{
		Position: inv.Rotate(world.Position.Sub(host.Position)).DivVec(host.Scale),
		Rotation: flipY.Conjugate().Mul(inv).Mul(world.Rotation.Normalize()).Normalize().Euler(),
	})
}

// CheckRoundTrip verifies that local projects onto world under host and
// that world maps back to an equivalent local rotation, within tol.
func CheckRoundTrip(local Pose, world WorldPose, host *HostTransform, tol float64) error {
	again, err := ToWorld(local, host)
	if err != nil {
		return err
	}
	if !again.Position.ApproxEqual(world.Position, tol) || !again.Rotation.SameRotation(world.Rotation, tol) {
		return ErrRoundTrip
	}
	return nil
}

func checkWorld(w WorldPose) (WorldPose, error) {
	if !w.Position.IsFinite() || !w.Rotation.IsFinite() {
		return WorldPose{}, ErrNonFinite
	}
	return w, nil
}

func checkLocal(p Pose) (Pose, error) {
	if !p.Position.IsFinite() || !p.Rotation.IsFinite() {
		return Pose{}, ErrNonFinite
	}
	return p, nil
}
