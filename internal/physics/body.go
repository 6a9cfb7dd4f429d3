// Package physics holds the rigid-body state of the kite, the
// semi-implicit Euler integrator that advances it, and the XPBD
// solver that keeps the two control lines from stretching.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/geom"
)

// BodyState is the full dynamic state of the kite. Position and both
// velocities are world frame; Orientation maps body to world and is
// kept unit-norm by every mutation.
type BodyState struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Orientation     mgl64.Quat
	AngularVelocity mgl64.Vec3
}

// NewBodyState returns a state at rest with identity orientation.
func NewBodyState(position mgl64.Vec3) BodyState {
	return BodyState{Position: position, Orientation: mgl64.QuatIdent()}
}

// IsValid reports whether the state is free of NaN and Inf.
func (s BodyState) IsValid() bool {
	return geom.IsFinite(s.Position) &&
		geom.IsFinite(s.Velocity) &&
		geom.IsFinite(s.AngularVelocity) &&
		geom.QuatIsFinite(s.Orientation)
}

// WorldPoint maps a body-local point into world coordinates.
func (s BodyState) WorldPoint(local mgl64.Vec3) mgl64.Vec3 {
	return s.Position.Add(s.Orientation.Rotate(local))
}

// Speed returns the linear speed in m/s.
func (s BodyState) Speed() float64 { return s.Velocity.Len() }

// OrientationNormError returns |1 - |q||, the drift from unit norm.
func (s BodyState) OrientationNormError() float64 {
	return math.Abs(1 - s.Orientation.Len())
}
