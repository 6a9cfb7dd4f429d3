package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/geom"
)

// solver passes; two constraints solved Gauss-Seidel style
const solverPasses = 3

// effective inverse mass floor, guards division in degenerate setups
const epsInverseMass = 1e-9

// Side indexes the two control lines.
type Side int

const (
	LeftLine Side = iota
	RightLine
)

// LineConfig parameterizes one pair of control lines. Both sides
// share BaseLength; steering shortens one side by SteerFactor times
// the bar angle. Compliance is XPBD softness in m/N, Tolerance the
// slack margin inside which a line is never corrected.
type LineConfig struct {
	BaseLength  float64
	Compliance  float64
	Tolerance   float64
	SteerFactor float64
	MinLength   float64
}

func DefaultLineConfig() LineConfig {
	return LineConfig{
		BaseLength:  15,
		Compliance:  2e-4,
		Tolerance:   0.02,
		SteerFactor: 0.35,
		MinLength:   1,
	}
}

// LineSolver enforces the two one-sided maximum-distance constraints
// between body-fixed control points and the handle positions. Lines
// only restrain stretching; a slack line applies nothing.
type LineSolver struct {
	cfg     LineConfig
	points  [2]mgl64.Vec3 // body-local control points
	mass    float64
	inertia float64

	tension [2]float64
}

func NewLineSolver(cfg LineConfig, left, right mgl64.Vec3, mass, inertia float64) *LineSolver {
	return &LineSolver{
		cfg:     cfg,
		points:  [2]mgl64.Vec3{left, right},
		mass:    mass,
		inertia: inertia,
	}
}

// SetBaseLength adjusts both lines. Values below MinLength are raised
// to it.
func (ls *LineSolver) SetBaseLength(l float64) {
	if l < ls.cfg.MinLength {
		l = ls.cfg.MinLength
	}
	ls.cfg.BaseLength = l
}

func (ls *LineSolver) Config() LineConfig { return ls.cfg }

// ControlPoint returns the body-local attachment for a side.
func (ls *LineSolver) ControlPoint(side Side) mgl64.Vec3 { return ls.points[side] }

// Tension reports the most recent constraint force estimate (N) for a
// side; zero when the line was slack.
func (ls *LineSolver) Tension(side Side) float64 { return ls.tension[side] }

// maxLength is the per-side limit after asymmetric steering: positive
// bar rotation shortens the right line and lengthens the left.
func (ls *LineSolver) maxLength(side Side, barAngle float64) float64 {
	delta := ls.cfg.SteerFactor * barAngle
	l := ls.cfg.BaseLength
	if side == RightLine {
		l -= delta
	} else {
		l += delta
	}
	if l < ls.cfg.MinLength {
		l = ls.cfg.MinLength
	}
	return l
}

// Solve corrects the predicted position, orientation and velocities
// in place so that neither line ends the step stretched beyond its
// maximum length. handles are the bar handle world positions, indexed
// by Side.
func (ls *LineSolver) Solve(pos *mgl64.Vec3, orient *mgl64.Quat, vel, angVel *mgl64.Vec3,
	handles [2]mgl64.Vec3, barAngle, dt float64) {

	if dt <= 0 {
		return
	}

	compliance := ls.cfg.Compliance / (dt * dt)

	var lambdaSum [2]float64
	for pass := 0; pass < solverPasses; pass++ {
		for side := LeftLine; side <= RightLine; side++ {
			lambdaSum[side] += ls.solveOne(side, pos, orient, vel, angVel,
				handles[side], barAngle, compliance)
		}
	}

	// accumulated multiplier over the step gives the XPBD force estimate
	for side := range lambdaSum {
		ls.tension[side] = lambdaSum[side] / (dt * dt)
	}
}

func (ls *LineSolver) solveOne(side Side, pos *mgl64.Vec3, orient *mgl64.Quat,
	vel, angVel *mgl64.Vec3, handle mgl64.Vec3, barAngle, compliance float64) float64 {

	maxLen := ls.maxLength(side, barAngle)
	lever := orient.Rotate(ls.points[side])
	world := pos.Add(lever)

	diff := world.Sub(handle)
	dist := diff.Len()
	if dist <= maxLen-ls.cfg.Tolerance {
		return 0 // slack: one-sided constraint stays inactive
	}

	normal := geom.SafeNormalize(diff, geom.Up)
	c := dist - maxLen
	if c <= 0 {
		return 0
	}

	leverCrossN := lever.Cross(normal)
	w := 1/ls.mass + leverCrossN.Dot(leverCrossN)/ls.inertia + compliance
	if w < epsInverseMass {
		w = epsInverseMass
	}
	lambda := c / w

	// positional correction toward the handle
	*pos = pos.Sub(normal.Mul(lambda / ls.mass))

	angCorr := leverCrossN.Mul(-lambda / ls.inertia)
	if angCorr.Len() > geom.Eps {
		dq := geom.QuatFromScaledAxis(angCorr)
		*orient = dq.Mul(*orient).Normalize()
	}

	// velocity-level projection: cancel any remaining separating
	// component at the attachment point
	lever = orient.Rotate(ls.points[side])
	pointVel := vel.Add(angVel.Cross(lever))
	vn := pointVel.Dot(normal)
	if vn > 0 {
		impulse := -vn / w
		*vel = vel.Add(normal.Mul(impulse / ls.mass))
		*angVel = angVel.Add(lever.Cross(normal).Mul(impulse / ls.inertia))
	}

	return lambda
}
