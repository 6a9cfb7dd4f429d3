package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/kitesim/internal/physics"
)

// Sample is one recorded step of a headless run.
type Sample struct {
	Time      float64
	State     physics.BodyState
	Telemetry Telemetry
	Input     float64
}

// Metric aggregates a scalar over a run.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Observer is notified of every step, e.g. for live rendering.
type Observer interface {
	OnStep(s Sample)
}

// RunConfig controls a headless run.
type RunConfig struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultRunConfig() RunConfig {
	return RunConfig{Dt: 1.0 / 60, Duration: 30, ValidateState: true}
}

// Result collects the trajectory and metric values of a run.
type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// RunError marks the step at which a run went numerically bad.
type RunError struct {
	Step    int
	Time    float64
	Message string
}

func (e RunError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

// Runner drives one Simulation through a steering program at a fixed
// timestep, collecting samples and metrics.
type Runner struct {
	sim       *Simulation
	program   SteeringProgram
	metrics   []Metric
	observers []Observer
}

func NewRunner(s *Simulation, program SteeringProgram) *Runner {
	if program == nil {
		program = None{}
	}
	return &Runner{sim: s, program: program}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Simulation returns the driven simulation, e.g. for reconfiguration
// between runs.
func (r *Runner) Simulation() *Simulation { return r.sim }

func validateRunConfig(cfg RunConfig) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

// Run resets the simulation and advances it for the configured
// duration. The context cancels between steps. On NaN/Inf state the
// run stops early with a RunError recorded in the result.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Samples: make([]Sample, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	r.sim.Reset()
	t := 0.0

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		input := r.program.Steer(t)
		r.sim.SetSteeringAnalog(input)
		r.sim.Tick(cfg.Dt)
		t += cfg.Dt
		result.StepsTaken++

		sample := Sample{Time: t, State: r.sim.State(), Telemetry: r.sim.Telemetry(), Input: input}

		if cfg.ValidateState && !sample.State.IsValid() {
			result.Errors = append(result.Errors,
				RunError{Step: i, Time: t, Message: "invalid state (NaN/Inf)"})
			break
		}

		for _, m := range r.metrics {
			m.Observe(sample)
		}
		for _, o := range r.observers {
			o.OnStep(sample)
		}
		result.Samples = append(result.Samples, sample)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}
