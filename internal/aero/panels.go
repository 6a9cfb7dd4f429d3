package aero

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/geom"
)

// Panel is one flat triangular surface element of the kite, in body
// coordinates. Area, outward normal and centroid are precomputed at
// construction and never change.
type Panel struct {
	Vertices [3]mgl64.Vec3
	Area     float64
	Normal   mgl64.Vec3
	Centroid mgl64.Vec3

	// Fin marks vertical stabilizer panels. Fins carry pressure loads
	// like any other panel but are excluded from the global
	// angle-of-attack estimate, which tracks the lifting canopy only.
	Fin bool
}

// NewPanel derives area, normal and centroid from three vertices.
// Winding determines the normal direction (right-hand rule).
func NewPanel(a, b, c mgl64.Vec3) Panel {
	cross := b.Sub(a).Cross(c.Sub(a))
	return Panel{
		Vertices: [3]mgl64.Vec3{a, b, c},
		Area:     cross.Len() / 2,
		Normal:   geom.SafeNormalize(cross, geom.Up),
		Centroid: a.Add(b).Add(c).Mul(1.0 / 3),
	}
}

// DeltaKite is the canonical kite design: two swept wing halves with
// dihedral (tips raised above the spine) and a vertical keel fin
// hanging below it. The body frame is +Z nose, +Y up, +X right; the
// design is mirror-symmetric about the x=0 plane.
type DeltaKite struct {
	Panels      []Panel
	BridleLeft  mgl64.Vec3
	BridleRight mgl64.Vec3
	TotalArea   float64
}

// DeltaParams sizes the kite. All lengths in meters.
type DeltaParams struct {
	Span      float64 `yaml:"span"`
	Chord     float64 `yaml:"chord"`
	Dihedral  float64 `yaml:"dihedral"`
	KeelDepth float64 `yaml:"keel_depth"`
}

func DefaultDeltaParams() DeltaParams {
	return DeltaParams{Span: 2.4, Chord: 1.2, Dihedral: 0.18, KeelDepth: 0.35}
}

// NewDeltaKite builds the panel set and bridle attachment points.
// The tail sits above the nose so the canopy carries built-in
// incidence: with the nose pointing downwind (+Z) the wing normals
// tilt downwind and a horizontal wind produces lift at identity
// orientation. The dihedral offset between tips and spine skews the
// wing normals laterally, which is what lets asymmetric loading under
// yaw produce a net yawing torque.
func NewDeltaKite(p DeltaParams) *DeltaKite {
	nose := mgl64.Vec3{0, 0, p.Chord * 0.6}
	tail := mgl64.Vec3{0, p.Chord * 0.3, -p.Chord * 0.4}
	tipL := mgl64.Vec3{-p.Span / 2, p.Dihedral, -p.Chord * 0.35}
	tipR := mgl64.Vec3{p.Span / 2, p.Dihedral, -p.Chord * 0.35}
	keel := mgl64.Vec3{0, -p.KeelDepth, p.Chord * 0.05}

	fin := NewPanel(nose, keel, tail) // keel, normal along ±X
	fin.Fin = true

	panels := []Panel{
		NewPanel(nose, tail, tipL), // left wing
		NewPanel(nose, tipR, tail), // right wing
		fin,
	}

	k := &DeltaKite{
		Panels:      panels,
		BridleLeft:  mgl64.Vec3{-p.Span * 0.25, -p.KeelDepth * 0.5, p.Chord * 0.1},
		BridleRight: mgl64.Vec3{p.Span * 0.25, -p.KeelDepth * 0.5, p.Chord * 0.1},
	}
	for _, pn := range panels {
		k.TotalArea += pn.Area
	}
	return k
}
