package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/physics"
	"github.com/san-kum/kitesim/internal/steering"
)

func TestResetIdempotent(t *testing.T) {
	s := NewSimulation(DefaultConfig())

	s.Reset()
	first := s.State()
	s.Reset()
	second := s.State()

	if first != second {
		t.Errorf("reset not idempotent: %v vs %v", first, second)
	}
}

func TestResetAfterFlightRestoresPose(t *testing.T) {
	s := NewSimulation(DefaultConfig())
	start := s.State()

	s.SetSteering(steering.Right)
	for i := 0; i < 300; i++ {
		s.Tick(1.0 / 60)
	}
	if s.State() == start {
		t.Fatal("expected flight to move the body")
	}

	s.Reset()
	if s.State() != start {
		t.Error("reset did not restore the canonical pose")
	}
	if s.Bar().Rotation() != 0 {
		t.Error("reset did not recenter the bar")
	}
}

func TestResetPoseWithinLineReach(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSimulation(cfg)

	st := s.State()
	left, right := s.HandlePositions()
	length := cfg.Lines.BaseLength

	for side, h := range []mgl64.Vec3{left, right} {
		dist := st.WorldPoint(s.Lines().ControlPoint(physics.Side(side))).Sub(h).Len()
		if dist > length {
			t.Errorf("side %d starts stretched: %f > %f", side, dist, length)
		}
	}
}

func TestZeroWindZeroSteeringStaysSettled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wind.Speed = 0
	cfg.Wind.Turbulence = 0
	s := NewSimulation(cfg)

	for i := 0; i < 900; i++ {
		s.Tick(1.0 / 60)
	}

	st := s.State()
	if !st.IsValid() {
		t.Fatal("state invalid in calm conditions")
	}
	// with no wind the kite swings down and damping settles it
	if st.Speed() > 0.5 {
		t.Errorf("expected calm-air settling, speed %f", st.Speed())
	}
	if tel := s.Telemetry(); tel.ApparentWindSpeed < 1e-6 && tel.Lift != 0 {
		t.Error("lift reported without any apparent wind")
	}
}

func TestDtClamped(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSimulation(cfg)

	before := s.State()
	s.Tick(5) // frame hitch: must be treated as MaxDt
	after := s.State()

	moved := after.Position.Sub(before.Position).Len()
	// displacement bounded by what MaxDt permits at clamped wind speed
	limit := cfg.MaxApparentWind * cfg.MaxDt * 10
	if moved > limit {
		t.Errorf("hitch displacement %f suggests unclamped dt", moved)
	}
	if !after.IsValid() {
		t.Fatal("state invalid after hitch")
	}
}

func TestNegativeDtIgnored(t *testing.T) {
	s := NewSimulation(DefaultConfig())
	before := s.State()

	s.Tick(-0.1)
	s.Tick(0)

	if s.State() != before {
		t.Error("non-positive dt mutated state")
	}
}

func TestSettersApply(t *testing.T) {
	s := NewSimulation(DefaultConfig())

	s.SetWindParams(9, 0.5, 0.2)
	w := s.Wind()
	if w.Speed != 9 || w.Direction != 0.5 || w.Turbulence != 0.2 {
		t.Errorf("wind params not applied: %+v", w)
	}

	s.SetLineLength(22)
	if s.Lines().Config().BaseLength != 22 {
		t.Error("line length not applied")
	}
}

func TestDeterministicTrajectory(t *testing.T) {
	run := func() physics.BodyState {
		cfg := DefaultConfig()
		cfg.Wind.Turbulence = 0.6
		s := NewSimulation(cfg)
		s.SetSteering(steering.Right)
		for i := 0; i < 300; i++ {
			s.Tick(1.0 / 60)
		}
		return s.State()
	}

	if run() != run() {
		t.Error("identical inputs produced different trajectories")
	}
}

func TestSteeringProgramShapes(t *testing.T) {
	if (None{}).Steer(3) != 0 {
		t.Error("none program should stay centered")
	}
	if (Hold{Value: -1}).Steer(10) != -1 {
		t.Error("hold program should keep its value")
	}

	sq := Square{Period: 4, Value: 0.5, Delay: 2}
	if sq.Steer(1) != 0 {
		t.Error("square program should honor delay")
	}
	if sq.Steer(3) != 0.5 || sq.Steer(5) != -0.5 {
		t.Error("square program phases wrong")
	}

	fl := Flip{At: 8}
	if fl.Steer(7.9) != 1 || fl.Steer(8.1) != -1 {
		t.Error("flip program should reverse at the configured time")
	}
}
