package aero

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func defaultModel() *Model {
	return NewModel(NewDeltaKite(DefaultDeltaParams()), DefaultModelParams())
}

func TestZeroWindZeroForce(t *testing.T) {
	m := defaultModel()

	force, torque := m.Forces(mgl64.Vec3{}, mgl64.QuatIdent())

	if force.Len() != 0 || torque.Len() != 0 {
		t.Errorf("expected exact zero force/torque, got %v / %v", force, torque)
	}
	if m.Lift() != 0 || m.Drag() != 0 {
		t.Error("expected zero lift/drag telemetry")
	}
}

func TestSymmetricWindNoYawTorque(t *testing.T) {
	m := defaultModel()

	// wind straight down the symmetry plane, untouched orientation
	_, torque := m.Forces(mgl64.Vec3{0, 0, 8}, mgl64.QuatIdent())

	if math.Abs(torque.Y()) > 1e-9 {
		t.Errorf("expected zero yaw torque for symmetric loading, got %f", torque.Y())
	}
}

func TestYawedBodyProducesYawTorque(t *testing.T) {
	m := defaultModel()

	yawed := mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})
	_, torque := m.Forces(mgl64.Vec3{0, 0, 8}, yawed)

	if math.Abs(torque.Y()) < 1e-6 {
		t.Error("expected emergent yaw torque from asymmetric loading")
	}
}

func TestLiftAndDownwindForce(t *testing.T) {
	m := defaultModel()

	windDir := mgl64.Vec3{0, 0, 1}
	force, _ := m.Forces(windDir.Mul(10), mgl64.QuatIdent())

	if force.Dot(windDir) <= 0 {
		t.Errorf("expected net force downwind, got %v", force)
	}
	if force.Y() <= 0 {
		t.Errorf("expected upward lift from built-in incidence, got %v", force)
	}
	if m.Lift() <= 0 || m.Drag() <= 0 {
		t.Error("expected positive lift and drag telemetry")
	}
}

func TestDynamicPressureScaling(t *testing.T) {
	m := defaultModel()

	f1, _ := m.Forces(mgl64.Vec3{0, 0, 5}, mgl64.QuatIdent())
	f2, _ := m.Forces(mgl64.Vec3{0, 0, 10}, mgl64.QuatIdent())

	ratio := f2.Len() / f1.Len()
	if math.Abs(ratio-4) > 1e-9 {
		t.Errorf("expected force to scale with speed squared, ratio %f", ratio)
	}
}

func TestStallFactorMonotone(t *testing.T) {
	m := defaultModel()
	p := m.params

	prev := math.Inf(1)
	for aoa := 0.0; aoa <= math.Pi/2; aoa += 0.01 {
		s := m.stallFactor(aoa)
		if s > prev+1e-12 {
			t.Fatalf("stall factor increased at aoa=%.3f", aoa)
		}
		if s < p.StallFloor-1e-12 || s > 1+1e-12 {
			t.Fatalf("stall factor %f out of [floor,1] at aoa=%.3f", s, aoa)
		}
		prev = s
	}

	if m.stallFactor(p.RecoveryAngle-0.01) != 1 {
		t.Error("expected factor 1 below recovery angle")
	}
	if m.stallFactor(p.StallAngle+0.5) != p.StallFloor {
		t.Error("expected floor beyond stall angle")
	}
}

func TestPanelGeometry(t *testing.T) {
	p := NewPanel(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, -1})

	if math.Abs(p.Area-0.5) > 1e-12 {
		t.Errorf("expected area 0.5, got %f", p.Area)
	}
	if p.Normal.Sub(mgl64.Vec3{0, 1, 0}).Len() > 1e-12 {
		t.Errorf("expected +Y normal, got %v", p.Normal)
	}
}

func TestDeltaKiteSymmetry(t *testing.T) {
	k := NewDeltaKite(DefaultDeltaParams())

	if len(k.Panels) != 3 {
		t.Fatalf("expected 3 panels, got %d", len(k.Panels))
	}

	left, right := k.Panels[0], k.Panels[1]
	if math.Abs(left.Area-right.Area) > 1e-12 {
		t.Error("wing areas differ")
	}
	if math.Abs(left.Normal.X()+right.Normal.X()) > 1e-12 {
		t.Error("wing normals not mirrored in X")
	}
	if k.BridleLeft.X() != -k.BridleRight.X() {
		t.Error("bridle points not mirrored")
	}
	if k.TotalArea <= 0 {
		t.Error("expected positive total area")
	}
}

func BenchmarkForces(b *testing.B) {
	m := defaultModel()
	wind := mgl64.Vec3{1, -0.5, -9}
	orient := mgl64.QuatRotate(0.2, mgl64.Vec3{1, 0, 0})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Forces(wind, orient)
	}
}
