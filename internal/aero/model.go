// Package aero computes aerodynamic force and torque on the kite from
// a set of flat triangular panels. Each panel contributes a pressure
// force along its normal proportional to dynamic pressure, area and
// incidence, plus a small tangential shear term. A global stall factor
// attenuates the lift-like component at high angle of attack.
package aero

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/geom"
)

const (
	// incidence cosine below which a panel carries no load
	epsIncidence = 1e-6
	// wind speed below which force and torque are exactly zero
	epsWindSpeed = 1e-6
)

// ModelParams are the aerodynamic constants. Angles in radians.
type ModelParams struct {
	AirDensity    float64
	RecoveryAngle float64
	StallAngle    float64
	StallFloor    float64
	ShearCoeff    float64
}

func DefaultModelParams() ModelParams {
	return ModelParams{
		AirDensity:    1.225,
		RecoveryAngle: 25 * math.Pi / 180,
		StallAngle:    50 * math.Pi / 180,
		StallFloor:    0.4,
		ShearCoeff:    0.02,
	}
}

// Model evaluates panel forces for one kite design. It is not safe
// for concurrent use: Forces caches the last breakdown for telemetry.
type Model struct {
	panels     []Panel
	params     ModelParams
	meanNormal mgl64.Vec3 // area-weighted, body frame

	lastLift float64
	lastDrag float64
	lastAoA  float64
}

func NewModel(kite *DeltaKite, p ModelParams) *Model {
	var mn mgl64.Vec3
	for _, pn := range kite.Panels {
		if pn.Fin {
			continue
		}
		mn = mn.Add(pn.Normal.Mul(pn.Area))
	}
	return &Model{
		panels:     kite.Panels,
		params:     p,
		meanNormal: geom.SafeNormalize(mn, geom.Up),
	}
}

// Forces returns total world-frame force and torque (about the body
// origin) for the given apparent wind and body orientation.
func (m *Model) Forces(apparent mgl64.Vec3, orient mgl64.Quat) (force, torque mgl64.Vec3) {
	speed := apparent.Len()
	if speed < epsWindSpeed {
		m.lastLift, m.lastDrag, m.lastAoA = 0, 0, 0
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	windDir := apparent.Mul(1 / speed)
	dynPressure := 0.5 * m.params.AirDensity * speed * speed

	worldMean := orient.Rotate(m.meanNormal)
	aoa := math.Asin(geom.Clamp(math.Abs(worldMean.Dot(windDir)), 0, 1))
	stall := m.stallFactor(aoa)

	var liftTotal, dragTotal float64
	for _, pn := range m.panels {
		n := orient.Rotate(pn.Normal)
		cosI := n.Dot(windDir)
		if math.Abs(cosI) < epsIncidence {
			continue
		}

		// pressure pushes the panel downwind along its normal axis
		dir := n
		if cosI < 0 {
			dir = n.Mul(-1)
		}
		f := dir.Mul(dynPressure * pn.Area * math.Abs(cosI))

		drag := windDir.Mul(f.Dot(windDir))
		lift := f.Sub(drag).Mul(stall)
		f = drag.Add(lift)

		if m.params.ShearCoeff > 0 {
			tangent := windDir.Sub(n.Mul(windDir.Dot(n)))
			if tangent.Len() > geom.Eps {
				f = f.Add(tangent.Mul(dynPressure * pn.Area * m.params.ShearCoeff))
			}
		}

		force = force.Add(f)
		lever := orient.Rotate(pn.Centroid)
		torque = torque.Add(lever.Cross(f))

		liftTotal += lift.Len()
		dragTotal += drag.Len()
	}

	m.lastLift = liftTotal
	m.lastDrag = dragTotal
	m.lastAoA = aoa
	return force, torque
}

// stallFactor is 1 below the recovery angle, the configured floor at
// and beyond the stall angle, and linear in between.
func (m *Model) stallFactor(aoa float64) float64 {
	p := m.params
	if aoa <= p.RecoveryAngle {
		return 1
	}
	if aoa >= p.StallAngle {
		return p.StallFloor
	}
	t := (aoa - p.RecoveryAngle) / (p.StallAngle - p.RecoveryAngle)
	return 1 - t*(1-p.StallFloor)
}

// Lift reports the summed lift-like force magnitude of the last call.
func (m *Model) Lift() float64 { return m.lastLift }

// Drag reports the summed drag force magnitude of the last call.
func (m *Model) Drag() float64 { return m.lastDrag }

// AngleOfAttack reports the last global angle of attack in radians.
func (m *Model) AngleOfAttack() float64 { return m.lastAoA }
