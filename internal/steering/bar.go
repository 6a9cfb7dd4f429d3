// Package steering maps discrete pilot input onto a smoothed control
// bar rotation and the resulting handle positions the control lines
// anchor to.
package steering

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/geom"
)

// Direction is the discrete steering intent for one frame.
type Direction int

const (
	None Direction = iota
	Left
	Right
)

// Params sizes the bar and its response rates. Angles in radians,
// rates in radians per second.
type Params struct {
	Width      float64
	Position   mgl64.Vec3
	MaxAngle   float64
	TurnRate   float64
	ReturnRate float64
}

func DefaultParams() Params {
	return Params{
		Width:      0.6,
		Position:   mgl64.Vec3{0, 1.2, 0},
		MaxAngle:   0.9,
		TurnRate:   2.4,
		ReturnRate: 3.2,
	}
}

// Bar holds the smoothed rotation state. Positive rotation steers
// right. Held input ramps the angle at TurnRate up to MaxAngle;
// released input decays it at ReturnRate, stopping exactly at zero.
type Bar struct {
	params   Params
	rotation float64
}

func NewBar(p Params) *Bar {
	return &Bar{params: p}
}

// Update advances the smoothed rotation by dt under the given intent.
func (b *Bar) Update(dt float64, dir Direction) {
	p := b.params
	switch dir {
	case Left:
		b.rotation = geom.Clamp(b.rotation-p.TurnRate*dt, -p.MaxAngle, p.MaxAngle)
	case Right:
		b.rotation = geom.Clamp(b.rotation+p.TurnRate*dt, -p.MaxAngle, p.MaxAngle)
	default:
		decay := p.ReturnRate * dt
		switch {
		case b.rotation > decay:
			b.rotation -= decay
		case b.rotation < -decay:
			b.rotation += decay
		default:
			b.rotation = 0
		}
	}
}

// UpdateAnalog is Update with a continuous intent in [-1, 1], used by
// scripted steering programs and the network interface.
func (b *Bar) UpdateAnalog(dt, input float64) {
	input = geom.Clamp(input, -1, 1)
	switch {
	case input > 0.01:
		b.rotation = geom.Clamp(b.rotation+b.params.TurnRate*input*dt,
			-b.params.MaxAngle, b.params.MaxAngle)
	case input < -0.01:
		b.rotation = geom.Clamp(b.rotation+b.params.TurnRate*input*dt,
			-b.params.MaxAngle, b.params.MaxAngle)
	default:
		b.Update(dt, None)
	}
}

// Rotation returns the current smoothed bar angle.
func (b *Bar) Rotation() float64 { return b.rotation }

// Reset recenters the bar.
func (b *Bar) Reset() { b.rotation = 0 }

// Position returns the bar's world position.
func (b *Bar) Position() mgl64.Vec3 { return b.params.Position }

// Orientation computes the bar rotation quaternion. The rotation axis
// is the cross product of the bar's lateral direction and the unit
// vector toward the body, so twisting the bar swings the handles in
// the plane facing the kite. A vertical axis substitutes when the two
// directions degenerate.
func (b *Bar) Orientation(bodyPos mgl64.Vec3) mgl64.Quat {
	lateral := mgl64.Vec3{1, 0, 0}
	toBody := geom.SafeNormalize(bodyPos.Sub(b.params.Position), geom.Up)

	axis := lateral.Cross(toBody)
	if axis.Len() < geom.Eps {
		axis = geom.Up
	} else {
		axis = axis.Normalize()
	}
	return mgl64.QuatRotate(b.rotation, axis)
}

// Handles returns the left and right handle world positions for the
// current rotation and the given body position.
func (b *Bar) Handles(bodyPos mgl64.Vec3) (left, right mgl64.Vec3) {
	q := b.Orientation(bodyPos)
	half := q.Rotate(mgl64.Vec3{b.params.Width / 2, 0, 0})
	return b.params.Position.Sub(half), b.params.Position.Add(half)
}
