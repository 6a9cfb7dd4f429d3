// Package wind models the ambient wind field: a steady base flow in
// the horizontal XZ plane plus a deterministic gust term. Apparent
// wind is the field evaluated relative to the moving body.
package wind

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/geom"
)

// Params describes the ambient wind. Direction is radians in the XZ
// plane (0 points along +Z), Turbulence is a 0..1 gust intensity.
type Params struct {
	Speed      float64
	Direction  float64
	Turbulence float64
}

// Field produces time-varying wind vectors. The gust term is a fixed
// sum of sinusoids of the internal clock, so a given dt sequence
// always reproduces the same trajectory.
type Field struct {
	params      Params
	maxApparent float64
	clock       float64
}

// gust frequencies (rad/s) per axis, deliberately non-commensurate so
// the combined signal never settles into a short repeating cycle.
var gustFreqs = [3][2]float64{
	{0.9, 2.3},
	{1.7, 0.6},
	{1.3, 3.1},
}

func NewField(p Params, maxApparent float64) *Field {
	return &Field{params: p, maxApparent: maxApparent}
}

// SetParams replaces the ambient wind parameters. Safe between ticks.
func (f *Field) SetParams(p Params) {
	p.Turbulence = geom.Clamp(p.Turbulence, 0, 1)
	f.params = p
}

func (f *Field) Params() Params { return f.params }

// ResetClock rewinds the gust clock, restoring the initial sequence.
func (f *Field) ResetClock() { f.clock = 0 }

// Ambient returns the wind vector at the current clock.
func (f *Field) Ambient() mgl64.Vec3 {
	p := f.params
	base := mgl64.Vec3{
		p.Speed * math.Sin(p.Direction),
		0,
		p.Speed * math.Cos(p.Direction),
	}
	if p.Turbulence <= 0 || p.Speed <= 0 {
		return base
	}

	amp := p.Turbulence * p.Speed * 0.35
	var gust mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		g := 0.6*math.Sin(gustFreqs[axis][0]*f.clock) +
			0.4*math.Sin(gustFreqs[axis][1]*f.clock+float64(axis))
		gust[axis] = amp * g
	}
	// vertical gusts are weaker than horizontal ones
	gust[1] *= 0.5
	return base.Add(gust)
}

// Apparent advances the clock by dt and returns the wind relative to
// the body, clamped to the configured maximum apparent speed.
func (f *Field) Apparent(bodyVel mgl64.Vec3, dt float64) mgl64.Vec3 {
	f.clock += dt
	return geom.ClampLen(f.Ambient().Sub(bodyVel), f.maxApparent)
}
