// Package geom provides epsilon-guarded vector and quaternion helpers
// used throughout the physics core. All math builds on mgl64; these
// wrappers exist so that degenerate inputs (zero-length vectors,
// vanishing rotations) resolve to safe defaults instead of NaN.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Eps is the shared tolerance for near-zero length and angle checks.
const Eps = 1e-9

// Up is the world vertical, used as the fallback rotation axis.
var Up = mgl64.Vec3{0, 1, 0}

// SafeNormalize returns v normalized, or fallback when |v| is below Eps.
func SafeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Eps {
		return fallback
	}
	return v.Mul(1 / l)
}

// ClampLen limits the magnitude of v to max, preserving direction.
func ClampLen(v mgl64.Vec3, max float64) mgl64.Vec3 {
	l := v.Len()
	if l <= max || l < Eps {
		return v
	}
	return v.Mul(max / l)
}

// QuatFromScaledAxis builds the incremental rotation for a scaled
// axis-angle vector w (axis = w normalized, angle = |w|). Rotations
// below Eps collapse to identity.
func QuatFromScaledAxis(w mgl64.Vec3) mgl64.Quat {
	angle := w.Len()
	if angle < Eps {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, w.Mul(1/angle))
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

// QuatIsFinite reports whether every component of q is a finite number.
func QuatIsFinite(q mgl64.Quat) bool {
	if math.IsNaN(q.W) || math.IsInf(q.W, 0) {
		return false
	}
	return IsFinite(q.V)
}

// Clamp limits x to the closed interval [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
