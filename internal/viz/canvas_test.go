package viz

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/kitesim/internal/physics"
	"github.com/san-kum/kitesim/internal/sim"
)

func TestCanvasSetAndIsSet(t *testing.T) {
	c := NewCanvas(10, 5)

	c.Set(3, 7)
	if !c.IsSet(3, 7) {
		t.Error("dot not set")
	}
	if c.IsSet(3, 6) {
		t.Error("neighbor dot should be clear")
	}

	// Out of range is a no-op, not a panic.
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(c.DotWidth(), 0)
	c.Set(0, c.DotHeight())
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Set(1, 1)
	c.Clear()
	if c.IsSet(1, 1) {
		t.Error("clear left a dot set")
	}
}

func TestCanvasLineEndpoints(t *testing.T) {
	c := NewCanvas(20, 10)
	c.Line(0, 0, 30, 25)
	if !c.IsSet(0, 0) || !c.IsSet(30, 25) {
		t.Error("line must include both endpoints")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(6, 3)
	out := c.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lines))
	}
	for _, line := range lines {
		if len([]rune(line)) != 6 {
			t.Errorf("row width %d, want 6", len([]rune(line)))
		}
	}
}

func pathSamples(n int) []sim.Sample {
	samples := make([]sim.Sample, 0, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		st := physics.NewBodyState(mgl64.Vec3{f * 2, 2 + f*10, 5 + f*8})
		samples = append(samples, sim.Sample{Time: f * 10, State: st})
	}
	return samples
}

func TestFlightPathDrawsTrajectory(t *testing.T) {
	c := FlightPath(SideView, pathSamples(50), 40, 12)

	set := 0
	for y := 0; y < c.DotHeight(); y++ {
		for x := 0; x < c.DotWidth(); x++ {
			if c.IsSet(x, y) {
				set++
			}
		}
	}
	if set < 20 {
		t.Errorf("expected a visible path, only %d dots set", set)
	}
}

func TestFlightPathEmpty(t *testing.T) {
	c := FlightPath(TopView, nil, 10, 5)
	for y := 0; y < c.DotHeight(); y++ {
		for x := 0; x < c.DotWidth(); x++ {
			if c.IsSet(x, y) {
				t.Fatal("empty run should render a blank canvas")
			}
		}
	}
}

func TestSeriesPlotSpansWidth(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i % 17)
	}
	c := SeriesPlot(values, 30, 8)

	if !anyDotInColumn(c, 0) || !anyDotInColumn(c, c.DotWidth()-1) {
		t.Error("plot should reach both horizontal edges")
	}
}

func anyDotInColumn(c *Canvas, x int) bool {
	for y := 0; y < c.DotHeight(); y++ {
		if c.IsSet(x, y) {
			return true
		}
	}
	return false
}
