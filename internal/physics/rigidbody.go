package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/geom"
)

// BodyParams are the body constants of the kite and the environment
// terms the integrator owns. Inertia is a scalar approximation of the
// (near-isotropic) inertia tensor.
type BodyParams struct {
	Mass    float64
	Inertia float64

	LinearDamping  float64
	AngularDamping float64
	AngularDrag    float64
	MaxAngularVel  float64

	GroundHeight   float64
	GroundFriction float64
}

func DefaultBodyParams() BodyParams {
	return BodyParams{
		Mass:           0.35,
		Inertia:        0.08,
		LinearDamping:  0.96,
		AngularDamping: 0.92,
		AngularDrag:    0.015,
		MaxAngularVel:  12,
		GroundHeight:   0.05,
		GroundFriction: 0.6,
	}
}

// RigidBody advances a BodyState under applied force and torque with
// semi-implicit Euler, solving the line constraints against the
// tentative state before committing it.
type RigidBody struct {
	params BodyParams
	lines  *LineSolver
}

func NewRigidBody(p BodyParams, lines *LineSolver) *RigidBody {
	return &RigidBody{params: p, lines: lines}
}

func (rb *RigidBody) Params() BodyParams { return rb.params }
func (rb *RigidBody) Lines() *LineSolver { return rb.lines }

// Update integrates one step of length dt and commits the corrected
// state into st. handles are the bar handle positions indexed by
// Side; barAngle feeds the asymmetric line-length limits.
func (rb *RigidBody) Update(st *BodyState, force, torque mgl64.Vec3,
	handles [2]mgl64.Vec3, barAngle, dt float64) {

	if dt <= 0 {
		return
	}
	p := rb.params

	// linear: accelerate, damp, predict
	vel := st.Velocity.Add(force.Mul(dt / p.Mass)).Mul(p.LinearDamping)
	pos := st.Position.Add(vel.Mul(dt))

	// angular: quadratic drag opposes spin before integration
	angVel := st.AngularVelocity
	torque = torque.Add(angVel.Mul(-p.AngularDrag * angVel.Len()))
	angVel = angVel.Add(torque.Mul(dt / p.Inertia)).Mul(p.AngularDamping)
	angVel = geom.ClampLen(angVel, p.MaxAngularVel)

	orient := geom.QuatFromScaledAxis(angVel.Mul(dt)).Mul(st.Orientation).Normalize()

	rb.lines.Solve(&pos, &orient, &vel, &angVel, handles, barAngle, dt)

	// flat ground plane: clamp altitude, kill downward velocity,
	// bleed horizontal speed through friction
	if pos.Y() < p.GroundHeight {
		pos[1] = p.GroundHeight
		if vel.Y() < 0 {
			vel[1] = 0
			vel[0] *= p.GroundFriction
			vel[2] *= p.GroundFriction
		}
	}

	st.Position = pos
	st.Velocity = vel
	st.AngularVelocity = angVel
	st.Orientation = orient.Normalize()
}
