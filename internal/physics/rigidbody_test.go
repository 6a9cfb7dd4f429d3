package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testBody() (*RigidBody, BodyState) {
	cfg := DefaultLineConfig()
	cfg.BaseLength = 50 // long enough to stay slack in most tests
	ls := NewLineSolver(cfg, mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0.5, 0, 0}, 0.8, 0.12)
	rb := NewRigidBody(DefaultBodyParams(), ls)
	return rb, NewBodyState(mgl64.Vec3{0, 10, 10})
}

var testHandles = [2]mgl64.Vec3{{-0.3, 1.2, 0}, {0.3, 1.2, 0}}

func TestFreeFallAccelerates(t *testing.T) {
	rb, st := testBody()
	g := mgl64.Vec3{0, -9.81 * rb.Params().Mass, 0}

	y0 := st.Position.Y()
	for i := 0; i < 60; i++ {
		rb.Update(&st, g, mgl64.Vec3{}, testHandles, 0, 1.0/60)
	}

	if st.Position.Y() >= y0 {
		t.Error("expected body to fall under gravity")
	}
	if st.Velocity.Y() >= 0 {
		t.Error("expected downward velocity")
	}
}

func TestGroundClampAndFriction(t *testing.T) {
	rb, st := testBody()
	st.Position = mgl64.Vec3{0, 0.2, 0}
	st.Velocity = mgl64.Vec3{4, -10, 4}

	g := mgl64.Vec3{0, -9.81 * rb.Params().Mass, 0}
	for i := 0; i < 30; i++ {
		rb.Update(&st, g, mgl64.Vec3{}, testHandles, 0, 1.0/60)
	}

	if st.Position.Y() < rb.Params().GroundHeight-1e-12 {
		t.Errorf("body below ground: %f", st.Position.Y())
	}
	if st.Velocity.Y() < 0 {
		t.Error("downward velocity not cleared on ground")
	}
	horizontal := math.Hypot(st.Velocity.X(), st.Velocity.Z())
	if horizontal > 1 {
		t.Errorf("expected friction to bleed horizontal speed, got %f", horizontal)
	}
}

func TestOrientationNormPreserved(t *testing.T) {
	rb, st := testBody()
	st.AngularVelocity = mgl64.Vec3{3, 5, 2}

	for i := 0; i < 600; i++ {
		rb.Update(&st, mgl64.Vec3{}, mgl64.Vec3{1, 0.5, -0.3}, testHandles, 0, 1.0/60)
		if err := st.OrientationNormError(); err > 1e-9 {
			t.Fatalf("orientation norm error %g at step %d", err, i)
		}
	}
}

func TestAngularVelocityCapped(t *testing.T) {
	rb, st := testBody()

	// absurd torque must still respect the soft cap
	for i := 0; i < 120; i++ {
		rb.Update(&st, mgl64.Vec3{}, mgl64.Vec3{0, 500, 0}, testHandles, 0, 1.0/60)
	}

	if st.AngularVelocity.Len() > rb.Params().MaxAngularVel+1e-9 {
		t.Errorf("angular velocity %f exceeds cap", st.AngularVelocity.Len())
	}
}

func TestAngularDragSpinsDown(t *testing.T) {
	rb, st := testBody()
	st.AngularVelocity = mgl64.Vec3{0, 8, 0}

	for i := 0; i < 120; i++ {
		rb.Update(&st, mgl64.Vec3{}, mgl64.Vec3{}, testHandles, 0, 1.0/60)
	}

	if st.AngularVelocity.Len() >= 8 {
		t.Error("expected free spin to decay")
	}
}

func TestZeroDtNoop(t *testing.T) {
	rb, st := testBody()
	before := st

	rb.Update(&st, mgl64.Vec3{0, 100, 0}, mgl64.Vec3{5, 5, 5}, testHandles, 0, 0)

	if st != before {
		t.Error("zero dt mutated state")
	}
}

func TestTautLineRestrainsBody(t *testing.T) {
	cfg := DefaultLineConfig()
	cfg.BaseLength = 10
	ls := NewLineSolver(cfg, mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0.5, 0, 0}, 0.8, 0.12)
	rb := NewRigidBody(DefaultBodyParams(), ls)
	st := NewBodyState(mgl64.Vec3{0, 7, 7})

	// constant strong downwind force, as from steady wind
	force := mgl64.Vec3{0, 2, 20}
	for i := 0; i < 600; i++ {
		rb.Update(&st, force, mgl64.Vec3{}, testHandles, 0, 1.0/60)
	}

	limit := cfg.BaseLength + cfg.Tolerance + 0.1
	for side := LeftLine; side <= RightLine; side++ {
		dist := st.WorldPoint(ls.ControlPoint(side)).Sub(testHandles[side]).Len()
		if dist > limit {
			t.Errorf("side %d line stretched to %f", side, dist)
		}
	}
	if !st.IsValid() {
		t.Fatal("state corrupted by constrained flight")
	}
}

func BenchmarkUpdate(b *testing.B) {
	cfg := DefaultLineConfig()
	ls := NewLineSolver(cfg, mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0.5, 0, 0}, 0.8, 0.12)
	rb := NewRigidBody(DefaultBodyParams(), ls)
	st := NewBodyState(mgl64.Vec3{0, 8, 12})
	force := mgl64.Vec3{1, 4, 9}
	torque := mgl64.Vec3{0.2, -0.1, 0.05}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb.Update(&st, force, torque, testHandles, 0.2, 1.0/60)
	}
}
