// Package export renders recorded flights to SVG for inspection
// outside the terminal.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/kitesim/internal/sim"
	"github.com/san-kum/kitesim/internal/viz"
)

// CanvasSVG converts a braille canvas into an SVG dot plot, one circle
// per lit dot. scale is the pixel size of a single dot.
func CanvasSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotWidth()) * scale
	height := float64(canvas.DotHeight()) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ccff">
`, width, height, width, height))

	r := scale * 0.4
	for y := 0; y < canvas.DotHeight(); y++ {
		for x := 0; x < canvas.DotWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FlightPathSVG renders a run's trajectory as a smooth SVG path with
// the launch point marked. The projection plane follows view.
func FlightPathSVG(view viz.View, samples []sim.Sample, width, height int) string {
	if len(samples) < 2 {
		return ""
	}

	type pt struct{ u, v float64 }
	pts := make([]pt, len(samples))
	minU, maxU := samples[0].State.Position.Z(), samples[0].State.Position.Z()
	minV, maxV := samples[0].State.Position.Y(), samples[0].State.Position.Y()
	for i, s := range samples {
		u, v := s.State.Position.Z(), s.State.Position.Y()
		if view == viz.TopView {
			u, v = s.State.Position.X(), s.State.Position.Z()
		}
		pts[i] = pt{u, v}
		if u < minU {
			minU = u
		}
		if u > maxU {
			maxU = u
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	rangeU := maxU - minU
	rangeV := maxV - minV
	if rangeU == 0 {
		rangeU = 1
	}
	if rangeV == 0 {
		rangeV = 1
	}
	minU -= rangeU * 0.1
	minV -= rangeV * 0.1
	rangeU *= 1.2
	rangeV *= 1.2

	toPx := func(p pt) (float64, float64) {
		x := (p.u - minU) / rangeU * float64(width)
		y := float64(height) - (p.v-minV)/rangeV*float64(height)
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="#00ccff" stroke-width="1.5" d="M`, width, height, width, height))

	for i, p := range pts {
		x, y := toPx(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")

	sx, sy := toPx(pts[0])
	sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"#ffcc00\"/>\n", sx, sy))
	sb.WriteString("</svg>")
	return sb.String()
}

// WriteFile writes rendered SVG to path.
func WriteFile(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0o644)
}
