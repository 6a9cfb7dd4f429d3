package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testSolver() *LineSolver {
	cfg := DefaultLineConfig()
	cfg.BaseLength = 10
	left := mgl64.Vec3{-0.5, 0, 0}
	right := mgl64.Vec3{0.5, 0, 0}
	return NewLineSolver(cfg, left, right, 0.8, 0.12)
}

func solveState(ls *LineSolver, pos mgl64.Vec3) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3, mgl64.Vec3) {
	orient := mgl64.QuatIdent()
	vel := mgl64.Vec3{}
	angVel := mgl64.Vec3{}
	handles := [2]mgl64.Vec3{{-0.3, 1.2, 0}, {0.3, 1.2, 0}}
	ls.Solve(&pos, &orient, &vel, &angVel, handles, 0, 1.0/60)
	return pos, orient, vel, angVel
}

func TestSlackLineUntouched(t *testing.T) {
	ls := testSolver()
	start := mgl64.Vec3{0, 5, 5} // well inside both line lengths

	pos, orient, vel, angVel := solveState(ls, start)

	if pos != start {
		t.Errorf("slack line moved the body: %v", pos)
	}
	if orient != mgl64.QuatIdent() || vel.Len() != 0 || angVel.Len() != 0 {
		t.Error("slack line altered orientation or velocities")
	}
	if ls.Tension(LeftLine) != 0 || ls.Tension(RightLine) != 0 {
		t.Error("slack line reported tension")
	}
}

func TestStretchedLineCorrected(t *testing.T) {
	ls := testSolver()
	start := mgl64.Vec3{0, 8, 7.5} // a hair beyond the 10m lines

	pos, orient, _, _ := solveState(ls, start)

	handles := [2]mgl64.Vec3{{-0.3, 1.2, 0}, {0.3, 1.2, 0}}
	for side := LeftLine; side <= RightLine; side++ {
		world := pos.Add(orient.Rotate(ls.ControlPoint(side)))
		dist := world.Sub(handles[side]).Len()
		limit := ls.Config().BaseLength + ls.Config().Tolerance
		// compliance leaves a small residual beyond the hard limit
		if dist > limit+0.05 {
			t.Errorf("side %d distance %f exceeds limit %f", side, dist, limit)
		}
	}

	if ls.Tension(LeftLine) <= 0 || ls.Tension(RightLine) <= 0 {
		t.Error("expected positive tension on stretched lines")
	}
}

func TestLargeViolationReducedWithoutBlowup(t *testing.T) {
	ls := testSolver()
	start := mgl64.Vec3{0, 9, 9} // far beyond the 10m lines

	pos, orient, vel, angVel := solveState(ls, start)

	st := BodyState{Position: pos, Velocity: vel, Orientation: orient, AngularVelocity: angVel}
	if !st.IsValid() {
		t.Fatal("solver produced NaN/Inf on large violation")
	}

	handles := [2]mgl64.Vec3{{-0.3, 1.2, 0}, {0.3, 1.2, 0}}
	for side := LeftLine; side <= RightLine; side++ {
		before := start.Add(ls.ControlPoint(side)).Sub(handles[side]).Len()
		after := pos.Add(orient.Rotate(ls.ControlPoint(side))).Sub(handles[side]).Len()
		if after >= before {
			t.Errorf("side %d stretch not reduced: %f -> %f", side, before, after)
		}
	}
}

func TestOrientationStaysUnit(t *testing.T) {
	ls := testSolver()

	// strongly asymmetric stretch to force orientation corrections
	pos := mgl64.Vec3{6, 8, 6}
	orient := mgl64.QuatIdent()
	vel := mgl64.Vec3{3, 2, 0}
	angVel := mgl64.Vec3{0, 1, 0}
	handles := [2]mgl64.Vec3{{-0.3, 1.2, 0}, {0.3, 1.2, 0}}

	ls.Solve(&pos, &orient, &vel, &angVel, handles, 0.4, 1.0/60)

	if math.Abs(orient.Len()-1) > 1e-9 {
		t.Errorf("orientation norm drifted: %f", orient.Len())
	}
}

func TestSeparatingVelocityCanceled(t *testing.T) {
	ls := testSolver()

	pos := mgl64.Vec3{0, 8, 7.6}
	orient := mgl64.QuatIdent()
	vel := mgl64.Vec3{0, 5, 5} // flying away from the handles
	angVel := mgl64.Vec3{}
	handles := [2]mgl64.Vec3{{-0.3, 1.2, 0}, {0.3, 1.2, 0}}

	ls.Solve(&pos, &orient, &vel, &angVel, handles, 0, 1.0/60)

	for side := LeftLine; side <= RightLine; side++ {
		lever := orient.Rotate(ls.ControlPoint(side))
		world := pos.Add(lever)
		normal := world.Sub(handles[side]).Normalize()
		pointVel := vel.Add(angVel.Cross(lever))
		if vn := pointVel.Dot(normal); vn > 1e-3 {
			t.Errorf("side %d still separating at %f m/s", side, vn)
		}
	}
}

func TestDegenerateLeverArmNoNaN(t *testing.T) {
	cfg := DefaultLineConfig()
	cfg.BaseLength = 5
	// control points at the body origin: zero lever arm
	ls := NewLineSolver(cfg, mgl64.Vec3{}, mgl64.Vec3{}, 0.8, 0.12)

	pos := mgl64.Vec3{0, 8, 8}
	orient := mgl64.QuatIdent()
	vel := mgl64.Vec3{}
	angVel := mgl64.Vec3{}
	handles := [2]mgl64.Vec3{{-0.3, 1.2, 0}, {0.3, 1.2, 0}}

	ls.Solve(&pos, &orient, &vel, &angVel, handles, 0, 1.0/60)

	st := BodyState{Position: pos, Velocity: vel, Orientation: orient, AngularVelocity: angVel}
	if !st.IsValid() {
		t.Fatal("NaN/Inf from zero lever arm")
	}
}

func TestSteeringShortensOneSide(t *testing.T) {
	ls := testSolver()

	base := ls.Config().BaseLength
	if l := ls.maxLength(RightLine, 0.5); l >= base {
		t.Errorf("expected right line shortened, got %f", l)
	}
	if l := ls.maxLength(LeftLine, 0.5); l <= base {
		t.Errorf("expected left line lengthened, got %f", l)
	}
	if l := ls.maxLength(RightLine, 100); l < ls.Config().MinLength {
		t.Errorf("line length %f under floor", l)
	}
}

func TestSetBaseLengthFloor(t *testing.T) {
	ls := testSolver()
	ls.SetBaseLength(-3)

	if ls.Config().BaseLength != ls.Config().MinLength {
		t.Errorf("expected floor at MinLength, got %f", ls.Config().BaseLength)
	}
}
