package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/kitesim/internal/sim"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws a side-on view of the flight to the terminal as a
// run progresses. It implements sim.Observer and throttles itself to
// the requested frame rate.
type LiveRenderer struct {
	cfg       sim.Config
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	trail     []struct{ x, y int }
}

func NewLiveRenderer(cfg sim.Config, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		cfg:       cfg,
		frameRate: frameRate,
		canvas:    canvas,
		trail:     make([]struct{ x, y int }, 0, 60),
	}
}

func (r *LiveRenderer) OnStep(s sim.Sample) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.clear()
	r.drawScene(s)
	r.render(s)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// project maps world (z, y) onto the canvas, keeping the whole line
// sphere in frame. Terminal cells are about twice as tall as wide, so
// the horizontal scale is doubled.
func (r *LiveRenderer) project(wz, wy float64) (int, int) {
	span := r.cfg.Lines.BaseLength * 1.3
	sx := float64(width-8) / span / 2
	sy := float64(height-4) / span
	x := 4 + int(wz*sx*2)
	y := height - 3 - int(wy*sy)
	return x, y
}

func (r *LiveRenderer) drawScene(s sim.Sample) {
	// Ground.
	for x := 0; x < width; x++ {
		r.set(x, height-2, '‾')
	}

	bx, by := r.project(r.cfg.Bar.Position.Z(), r.cfg.Bar.Position.Y())
	kx, ky := r.project(s.State.Position.Z(), s.State.Position.Y())

	r.trail = append(r.trail, struct{ x, y int }{kx, ky})
	if len(r.trail) > 60 {
		r.trail = r.trail[1:]
	}
	for i, pt := range r.trail {
		if i < len(r.trail)/2 {
			r.set(pt.x, pt.y, '.')
		} else {
			r.set(pt.x, pt.y, 'o')
		}
	}

	// Pilot and bar.
	r.set(bx, by+1, '|')
	r.set(bx, by, '+')

	// Flying lines and the kite itself. Both lines land on the same
	// projected pixel in a pure side view, so offset one for depth.
	r.line(bx, by, kx, ky, '\'')
	r.line(bx+1, by, kx+1, ky, '`')
	r.set(kx, ky, '#')

	// Wind arrow, upwind edge.
	r.set(2, 2, '~')
	r.set(3, 2, '~')
	r.set(4, 2, '>')
}

func (r *LiveRenderer) render(s sim.Sample) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  kitesim  t=%.2fs\n", s.Time))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  alt=%.1fm  wind=%.1fm/s  aoa=%.0f°  L=%.1fN R=%.1fN  bar=%+.2f\n",
		s.State.Position.Y(),
		s.Telemetry.ApparentWindSpeed,
		s.Telemetry.AngleOfAttackDeg,
		s.Telemetry.TensionLeft,
		s.Telemetry.TensionRight,
		s.Telemetry.BarAngle))

	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
