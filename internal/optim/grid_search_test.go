package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/kitesim/internal/metrics"
	"github.com/san-kum/kitesim/internal/sim"
)

func buildTensionRunner(params map[string]float64) (*sim.Runner, sim.RunConfig, error) {
	cfg := sim.DefaultConfig()
	cfg.Wind.Speed = params["wind_speed"]
	cfg.Wind.Turbulence = 0

	r := sim.NewRunner(sim.NewSimulation(cfg), sim.None{})
	r.AddMetric(metrics.NewPeakTension())

	return r, sim.RunConfig{Dt: 1.0 / 60, Duration: 3, ValidateState: true}, nil
}

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"wind_speed"}, [][]float64{{3, 9}})

	best, val, err := g.Search(context.Background(), buildTensionRunner, "peak_tension")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if best == nil {
		t.Fatal("no best parameters found")
	}
	if best["wind_speed"] != 3 {
		t.Errorf("lighter wind should load lines less, best=%v val=%f", best, val)
	}
}

func TestGridSearchMultipleDimensions(t *testing.T) {
	g := NewGridSearch(
		[]string{"wind_speed", "turbulence"},
		[][]float64{{4, 6}, {0, 0.3}},
	)

	evals := 0
	build := func(params map[string]float64) (*sim.Runner, sim.RunConfig, error) {
		evals++
		cfg := sim.DefaultConfig()
		cfg.Wind.Speed = params["wind_speed"]
		cfg.Wind.Turbulence = params["turbulence"]
		r := sim.NewRunner(sim.NewSimulation(cfg), sim.None{})
		r.AddMetric(metrics.NewControlEffort())
		return r, sim.RunConfig{Dt: 1.0 / 30, Duration: 1, ValidateState: true}, nil
	}

	best, _, err := g.Search(context.Background(), build, "control_effort")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if evals != 4 {
		t.Errorf("expected 4 grid points, evaluated %d", evals)
	}
	if len(best) != 2 {
		t.Errorf("best should carry both parameters: %v", best)
	}
}

func TestGridSearchSkipsBuildErrors(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})

	build := func(params map[string]float64) (*sim.Runner, sim.RunConfig, error) {
		if params["x"] == 1 {
			return nil, sim.RunConfig{}, errors.New("unbuildable")
		}
		return buildTensionRunner(map[string]float64{"wind_speed": 5})
	}

	best, _, err := g.Search(context.Background(), build, "peak_tension")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if best["x"] != 2 {
		t.Errorf("expected surviving grid point, got %v", best)
	}
}

func TestGridSearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"wind_speed"}, [][]float64{{3, 9}})
	_, _, err := g.Search(ctx, buildTensionRunner, "peak_tension")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
