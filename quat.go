package engrave

import "math"

// Quat is a rotation quaternion with vector part (X, Y, Z) and scalar part W.
// The zero value is not a valid rotation; use [QuatIdentity].
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the rotation that leaves vectors unchanged.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatAxisAngle returns the rotation of angle radians about a unit axis.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	s := math.Sin(angle / 2)
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: math.Cos(angle / 2)}
}

// QuatFromEuler converts Euler angles to a quaternion.
// The angles are applied in XYZ order: the result equals Rx * Ry * Rz.
func QuatFromEuler(e Vec3) Quat {
	c1 := math.Cos(e.X / 2)
	c2 := math.Cos(e.Y / 2)
	c3 := math.Cos(e.Z / 2)
	s1 := math.Sin(e.X / 2)
	s2 := math.Sin(e.Y / 2)
	s3 := math.Sin(e.Z / 2)

	return Quat{
		X: s1*c2*c3 + c1*s2*s3,
		Y: c1*s2*c3 - s1*c2*s3,
		Z: c1*c2*s3 + s1*s2*c3,
		W: c1*c2*c3 - s1*s2*s3,
	}
}

// Euler returns the XYZ-order Euler angles of a unit quaternion.
// X and Z fall in (-pi, pi], Y in [-pi/2, pi/2]. At gimbal lock
// (|Y| = pi/2) Z is reported as zero.
func (q Quat) Euler() Vec3 {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, xy, xz := q.X*x2, q.X*y2, q.X*z2
	yy, yz, zz := q.Y*y2, q.Y*z2, q.Z*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2

	m11 := 1 - (yy + zz)
	m12 := xy - wz
	m13 := xz + wy
	m22 := 1 - (xx + zz)
	m23 := yz - wx
	m32 := yz + wx
	m33 := 1 - (xx + yy)

	var e Vec3
	e.Y = math.Asin(clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		e.X = math.Atan2(m32, m22)
		e.Z = 0
	}
	return e
}

// Mul returns the Hamilton product q * r: the rotation r followed by q.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		X: q.X*r.W + q.W*r.X + q.Y*r.Z - q.Z*r.Y,
		Y: q.Y*r.W + q.W*r.Y + q.Z*r.X - q.X*r.Z,
		Z: q.Z*r.W + q.W*r.Z + q.X*r.Y - q.Y*r.X,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Conjugate returns the quaternion with its vector part negated.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Inverse returns the multiplicative inverse.
// The zero quaternion is returned unchanged.
func (q Quat) Inverse() Quat {
	n := q.LengthSq()
	if n == 0 {
		return q
	}
	c := q.Conjugate()
	return Quat{X: c.X / n, Y: c.Y / n, Z: c.Z / n, W: c.W / n}
}

// LengthSq returns the squared norm.
func (q Quat) LengthSq() float64 {
	return q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
}

// Normalize returns the unit quaternion in the same direction.
// The zero quaternion normalizes to the identity.
func (q Quat) Normalize() Quat {
	n := math.Sqrt(q.LengthSq())
	if n == 0 {
		return QuatIdentity()
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// Rotate applies the rotation to v. q must be a unit quaternion.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(u.Cross(t))
}

// IsFinite reports whether no component is NaN or infinite.
func (q Quat) IsFinite() bool {
	return isFinite(q.X) && isFinite(q.Y) && isFinite(q.Z) && isFinite(q.W)
}

// SameRotation reports whether q and r describe the same rotation within
// tol, treating r and -r as equal.
func (q Quat) SameRotation(r Quat, tol float64) bool {
	d := q.X*r.X + q.Y*r.Y + q.Z*r.Z + q.W*r.W
	return 1-math.Abs(d) <= tol
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
