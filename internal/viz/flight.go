package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/sim"
)

// View selects which pair of world axes a flight-path plot projects.
type View int

const (
	// SideView plots downwind distance against altitude.
	SideView View = iota
	// TopView plots crosswind offset against downwind distance, as
	// seen from above.
	TopView
)

// projection maps a world-space rectangle onto canvas dot coordinates,
// preserving aspect ratio and flipping the vertical axis so larger
// world values appear higher on screen.
type projection struct {
	minU, minV float64
	scale      float64
	dotsW      int
	dotsH      int
}

func (p projection) toDots(u, v float64) (int, int) {
	x := int(math.Round((u - p.minU) * p.scale))
	y := p.dotsH - 1 - int(math.Round((v-p.minV)*p.scale))
	return x, y
}

func planeCoords(view View, pos mgl64.Vec3) (u, v float64) {
	if view == TopView {
		return pos.X(), pos.Z()
	}
	return pos.Z(), pos.Y()
}

func fitProjection(view View, samples []sim.Sample, c *Canvas) projection {
	minU, maxU := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		u, v := planeCoords(view, s.State.Position)
		minU = math.Min(minU, u)
		maxU = math.Max(maxU, u)
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	// Anchor the side view at the ground and the bar position so the
	// flight path reads against fixed references.
	if view == SideView {
		minV = math.Min(minV, 0)
	}
	minU = math.Min(minU, 0)
	maxU = math.Max(maxU, minU+1)
	maxV = math.Max(maxV, minV+1)

	// Pad by 5% so the path stays off the border.
	padU := (maxU - minU) * 0.05
	padV := (maxV - minV) * 0.05
	minU -= padU
	maxU += padU
	minV -= padV
	maxV += padV

	sc := math.Min(
		float64(c.DotWidth()-1)/(maxU-minU),
		float64(c.DotHeight()-1)/(maxV-minV),
	)
	return projection{minU: minU, minV: minV, scale: sc, dotsW: c.DotWidth(), dotsH: c.DotHeight()}
}

// FlightPath renders the trajectory of a recorded run onto a braille
// canvas. The side view additionally draws the ground line.
func FlightPath(view View, samples []sim.Sample, width, height int) *Canvas {
	c := NewCanvas(width, height)
	if len(samples) == 0 {
		return c
	}
	p := fitProjection(view, samples, c)

	if view == SideView {
		gx0, gy := p.toDots(p.minU, 0)
		gx1, _ := p.toDots(p.minU+float64(p.dotsW)/p.scale, 0)
		if gy >= 0 && gy < c.DotHeight() {
			c.Line(gx0, gy, gx1, gy)
		}
	}

	prevX, prevY := -1, -1
	for _, s := range samples {
		u, v := planeCoords(view, s.State.Position)
		x, y := p.toDots(u, v)
		if prevX >= 0 {
			c.Line(prevX, prevY, x, y)
		} else {
			c.Set(x, y)
		}
		prevX, prevY = x, y
	}
	return c
}

// SeriesPlot renders a single telemetry column against time. It is the
// braille counterpart of the asciigraph plots in the CLI, used where a
// canvas is being composed into a larger frame or exported as SVG.
func SeriesPlot(values []float64, width, height int) *Canvas {
	c := NewCanvas(width, height)
	if len(values) < 2 {
		return c
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if maxV-minV < 1e-12 {
		maxV = minV + 1
	}

	dotsW := float64(c.DotWidth() - 1)
	dotsH := float64(c.DotHeight() - 1)
	prevX, prevY := -1, -1
	for i, v := range values {
		x := int(math.Round(float64(i) / float64(len(values)-1) * dotsW))
		y := int(math.Round(dotsH - (v-minV)/(maxV-minV)*dotsH))
		if prevX >= 0 {
			c.Line(prevX, prevY, x, y)
		}
		prevX, prevY = x, y
	}
	return c
}
