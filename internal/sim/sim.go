// Package sim orchestrates one simulated kite: wind field, panel
// aerodynamics, steering bar and rigid body are sequenced once per
// Tick. The package also provides a headless Runner that drives a
// Simulation through a scripted steering program for batch runs.
package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/aero"
	"github.com/san-kum/kitesim/internal/physics"
	"github.com/san-kum/kitesim/internal/steering"
	"github.com/san-kum/kitesim/internal/wind"
)

// Config gathers every component's parameters. Built once (usually by
// the config package) and passed to NewSimulation; there is no global
// tuning state.
type Config struct {
	Kite  aero.DeltaParams
	Aero  aero.ModelParams
	Body  physics.BodyParams
	Lines physics.LineConfig
	Bar   steering.Params
	Wind  wind.Params

	Gravity         float64
	MaxDt           float64
	MaxApparentWind float64
	// DownwindFraction places the reset pose: horizontal distance from
	// the bar as a fraction of line length.
	DownwindFraction float64
}

func DefaultConfig() Config {
	return Config{
		Kite:             aero.DefaultDeltaParams(),
		Aero:             aero.DefaultModelParams(),
		Body:             physics.DefaultBodyParams(),
		Lines:            physics.DefaultLineConfig(),
		Bar:              steering.DefaultParams(),
		Wind:             wind.Params{Speed: 5, Direction: 0, Turbulence: 0.1},
		Gravity:          9.81,
		MaxDt:            1.0 / 30,
		MaxApparentWind:  60,
		DownwindFraction: 0.95,
	}
}

// Telemetry is the per-tick debug readout consumed by the UI layers.
type Telemetry struct {
	ApparentWindSpeed float64 `json:"apparent_wind_speed"`
	Lift              float64 `json:"lift"`
	Drag              float64 `json:"drag"`
	AngleOfAttackDeg  float64 `json:"angle_of_attack_deg"`
	TensionLeft       float64 `json:"tension_left"`
	TensionRight      float64 `json:"tension_right"`
	BarAngle          float64 `json:"bar_angle"`
}

// Simulation owns the single BodyState and every collaborator that
// mutates it. All methods must be called from one goroutine; setters
// are safe between ticks, never from within one.
type Simulation struct {
	cfg Config

	body  physics.BodyState
	rigid *physics.RigidBody
	lines *physics.LineSolver
	bar   *steering.Bar
	field *wind.Field
	model *aero.Model

	input     steering.Direction
	analog    float64
	useAnalog bool

	telemetry Telemetry
}

func NewSimulation(cfg Config) *Simulation {
	kite := aero.NewDeltaKite(cfg.Kite)
	lines := physics.NewLineSolver(cfg.Lines, kite.BridleLeft, kite.BridleRight,
		cfg.Body.Mass, cfg.Body.Inertia)

	s := &Simulation{
		cfg:   cfg,
		lines: lines,
		rigid: physics.NewRigidBody(cfg.Body, lines),
		bar:   steering.NewBar(cfg.Bar),
		field: wind.NewField(cfg.Wind, cfg.MaxApparentWind),
		model: aero.NewModel(kite, cfg.Aero),
	}
	s.Reset()
	return s
}

// Reset reinitializes the body to the canonical starting pose: just
// inside line reach, downwind of the bar, nose pointed downwind, at
// rest. Calling it twice in a row yields the identical state.
func (s *Simulation) Reset() {
	length := s.lines.Config().BaseLength
	horiz := s.cfg.DownwindFraction * length
	// start slightly slack: straight-line distance 98% of line length
	slant := 0.98 * length
	alt := 0.0
	if slant > horiz {
		alt = math.Sqrt(slant*slant - horiz*horiz)
	}

	dir := s.field.Params().Direction
	downwind := mgl64.Vec3{math.Sin(dir), 0, math.Cos(dir)}

	pos := s.bar.Position().Add(downwind.Mul(horiz)).Add(mgl64.Vec3{0, alt, 0})
	s.body = physics.NewBodyState(pos)
	s.body.Orientation = mgl64.QuatRotate(dir, mgl64.Vec3{0, 1, 0})

	s.bar.Reset()
	s.field.ResetClock()
	s.input = steering.None
	s.analog = 0
	s.useAnalog = false
	s.telemetry = Telemetry{}
}

// SetSteering stores the discrete steering intent applied on the next
// Tick and until changed.
func (s *Simulation) SetSteering(dir steering.Direction) {
	s.input = dir
	s.useAnalog = false
}

// SetSteeringAnalog stores a continuous intent in [-1, 1]; used by
// steering programs and the network interface.
func (s *Simulation) SetSteeringAnalog(v float64) {
	s.analog = v
	s.useAnalog = true
}

// SetWindParams replaces the ambient wind between ticks.
func (s *Simulation) SetWindParams(speed, direction, turbulence float64) {
	s.field.SetParams(wind.Params{Speed: speed, Direction: direction, Turbulence: turbulence})
}

// SetLineLength adjusts both control lines.
func (s *Simulation) SetLineLength(l float64) { s.lines.SetBaseLength(l) }

// Tick advances the simulation by dt (clamped to MaxDt). Sequence:
// bar smoothing, handle positions, apparent wind from previous-frame
// velocity, panel forces plus gravity, rigid-body update.
func (s *Simulation) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	if dt > s.cfg.MaxDt {
		dt = s.cfg.MaxDt
	}

	if s.useAnalog {
		s.bar.UpdateAnalog(dt, s.analog)
	} else {
		s.bar.Update(dt, s.input)
	}
	left, right := s.bar.Handles(s.body.Position)
	handles := [2]mgl64.Vec3{left, right} // indexed by physics.Side

	apparent := s.field.Apparent(s.body.Velocity, dt)
	force, torque := s.model.Forces(apparent, s.body.Orientation)
	force = force.Add(mgl64.Vec3{0, -s.cfg.Body.Mass * s.cfg.Gravity, 0})

	s.rigid.Update(&s.body, force, torque, handles, s.bar.Rotation(), dt)

	s.telemetry = Telemetry{
		ApparentWindSpeed: apparent.Len(),
		Lift:              s.model.Lift(),
		Drag:              s.model.Drag(),
		AngleOfAttackDeg:  s.model.AngleOfAttack() * 180 / math.Pi,
		TensionLeft:       s.lines.Tension(physics.LeftLine),
		TensionRight:      s.lines.Tension(physics.RightLine),
		BarAngle:          s.bar.Rotation(),
	}
}

// State returns a copy of the body state.
func (s *Simulation) State() physics.BodyState { return s.body }

// Telemetry returns the readout of the last tick.
func (s *Simulation) Telemetry() Telemetry { return s.telemetry }

// Bar exposes the steering bar, read-only by convention.
func (s *Simulation) Bar() *steering.Bar { return s.bar }

// Lines exposes the line solver, read-only by convention.
func (s *Simulation) Lines() *physics.LineSolver { return s.lines }

// Wind returns the current ambient wind parameters.
func (s *Simulation) Wind() wind.Params { return s.field.Params() }

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// HandlePositions returns the current left and right handle world
// positions, for rendering.
func (s *Simulation) HandlePositions() (left, right mgl64.Vec3) {
	return s.bar.Handles(s.body.Position)
}
