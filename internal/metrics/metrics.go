// Package metrics provides run-level aggregates over flight samples,
// reported by the headless runner and the CLI.
package metrics

import (
	"math"

	"github.com/san-kum/kitesim/internal/sim"
)

// Envelope measures the altitude band the kite occupied.
type Envelope struct {
	name     string
	min, max float64
	samples  int
}

func NewEnvelope() *Envelope {
	return &Envelope{name: "envelope"}
}

func (e *Envelope) Name() string { return e.name }

func (e *Envelope) Observe(s sim.Sample) {
	y := s.State.Position.Y()
	if e.samples == 0 || y < e.min {
		e.min = y
	}
	if e.samples == 0 || y > e.max {
		e.max = y
	}
	e.samples++
}

func (e *Envelope) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.max - e.min
}

func (e *Envelope) Reset() {
	e.min, e.max = 0, 0
	e.samples = 0
}

// ControlEffort averages the absolute steering input.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string { return c.name }

func (c *ControlEffort) Observe(s sim.Sample) {
	c.sum += math.Abs(s.Input)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// PeakTension records the highest single-line tension seen.
type PeakTension struct {
	name string
	peak float64
}

func NewPeakTension() *PeakTension {
	return &PeakTension{name: "peak_tension"}
}

func (p *PeakTension) Name() string { return p.name }

func (p *PeakTension) Observe(s sim.Sample) {
	t := math.Max(s.Telemetry.TensionLeft, s.Telemetry.TensionRight)
	if t > p.peak {
		p.peak = t
	}
}

func (p *PeakTension) Value() float64 { return p.peak }

func (p *PeakTension) Reset() { p.peak = 0 }

// GroundContacts counts descents onto the ground plane.
type GroundContacts struct {
	name     string
	height   float64
	contacts int
	grounded bool
}

func NewGroundContacts(groundHeight float64) *GroundContacts {
	return &GroundContacts{name: "ground_contacts", height: groundHeight}
}

func (g *GroundContacts) Name() string { return g.name }

func (g *GroundContacts) Observe(s sim.Sample) {
	on := s.State.Position.Y() <= g.height+1e-6
	if on && !g.grounded {
		g.contacts++
	}
	g.grounded = on
}

func (g *GroundContacts) Value() float64 { return float64(g.contacts) }

func (g *GroundContacts) Reset() {
	g.contacts = 0
	g.grounded = false
}

// StallFraction is the share of samples flown past the recovery
// angle, where the stall factor attenuates lift.
type StallFraction struct {
	name        string
	recoveryDeg float64
	stalled     int
	samples     int
}

func NewStallFraction(recoveryDeg float64) *StallFraction {
	return &StallFraction{name: "stall_fraction", recoveryDeg: recoveryDeg}
}

func (f *StallFraction) Name() string { return f.name }

func (f *StallFraction) Observe(s sim.Sample) {
	if s.Telemetry.AngleOfAttackDeg > f.recoveryDeg {
		f.stalled++
	}
	f.samples++
}

func (f *StallFraction) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.stalled) / float64(f.samples)
}

func (f *StallFraction) Reset() {
	f.stalled = 0
	f.samples = 0
}

// Defaults is the metric set the CLI attaches to every run.
func Defaults(cfg sim.Config) []sim.Metric {
	return []sim.Metric{
		NewEnvelope(),
		NewControlEffort(),
		NewPeakTension(),
		NewGroundContacts(cfg.Body.GroundHeight),
		NewStallFraction(cfg.Aero.RecoveryAngle * 180 / math.Pi),
	}
}
