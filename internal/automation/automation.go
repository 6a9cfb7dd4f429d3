// Package automation runs scripted batches of flights: multi-step YAML
// scenarios, and Monte Carlo launch-robustness trials under perturbed
// wind.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/metrics"
	"github.com/san-kum/kitesim/internal/sim"
)

// Scenario defines a scripted sequence of flights.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one flight in a scenario. Preset names a starting
// configuration; the remaining fields override it when non-nil.
type ScenarioStep struct {
	Name       string   `yaml:"name"`
	Preset     string   `yaml:"preset"`
	Program    string   `yaml:"program"`
	WindSpeed  *float64 `yaml:"wind_speed"`
	Turbulence *float64 `yaml:"turbulence"`
	LineLength *float64 `yaml:"line_length"`
	Duration   *float64 `yaml:"duration"`
	Dt         *float64 `yaml:"dt"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// StepResult pairs a step with its completed run.
type StepResult struct {
	Step   ScenarioStep
	Result *sim.Result
}

func (s ScenarioStep) configFor() (*config.Config, error) {
	cfg := config.Default()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.Program != "" {
		cfg.Sim.Program = s.Program
	}
	if s.WindSpeed != nil {
		cfg.Wind.Speed = *s.WindSpeed
	}
	if s.Turbulence != nil {
		cfg.Wind.Turbulence = *s.Turbulence
	}
	if s.LineLength != nil {
		cfg.Lines.Length = *s.LineLength
	}
	if s.Duration != nil {
		cfg.Sim.Duration = *s.Duration
	}
	if s.Dt != nil {
		cfg.Sim.Dt = *s.Dt
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runStep(ctx context.Context, cfg *config.Config) (*sim.Result, error) {
	simCfg := cfg.SimConfigFor()

	mk, ok := sim.Programs()[cfg.Sim.Program]
	if !ok {
		return nil, fmt.Errorf("unknown steering program %q", cfg.Sim.Program)
	}

	runner := sim.NewRunner(sim.NewSimulation(simCfg), mk())
	for _, m := range metrics.Defaults(simCfg) {
		runner.AddMetric(m)
	}
	return runner.Run(ctx, cfg.RunConfigFor())
}

// RunScenario executes all steps in order, stopping at the first
// failure.
func RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.configFor()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}

		result, err := runStep(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
		results = append(results, StepResult{Step: step, Result: result})
	}
	return results, nil
}

// MonteCarloConfig perturbs the wind around a base configuration to
// probe how reliably a steering program keeps the kite flying.
type MonteCarloConfig struct {
	Base         *config.Config
	WindJitter   float64 // max wind speed deviation, m/s
	TurbJitter   float64 // max turbulence deviation
	NumTrials    int
	Seed         int64
	MinAltitude  float64 // a trial dipping below this is unstable
	TrialSeconds float64
}

// MonteCarloResult is the outcome of a single perturbed trial.
type MonteCarloResult struct {
	TrialID    int
	WindSpeed  float64
	Turbulence float64
	Stable     bool
}

// RunMonteCarlo runs perturbed trials. A trial is stable when the run
// produced no errors and the kite never dipped below MinAltitude after
// the first second of flight.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.Base == nil {
		mc.Base = config.Default()
	}
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]MonteCarloResult, 0, mc.NumTrials)
	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := *mc.Base
		cfg.Wind.Speed += (rng.Float64() - 0.5) * 2 * mc.WindJitter
		if cfg.Wind.Speed < 0 {
			cfg.Wind.Speed = 0
		}
		cfg.Wind.Turbulence += (rng.Float64() - 0.5) * 2 * mc.TurbJitter
		if cfg.Wind.Turbulence < 0 {
			cfg.Wind.Turbulence = 0
		}
		if cfg.Wind.Turbulence > 1 {
			cfg.Wind.Turbulence = 1
		}
		if mc.TrialSeconds > 0 {
			cfg.Sim.Duration = mc.TrialSeconds
		}

		result, err := runStep(ctx, &cfg)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		results = append(results, MonteCarloResult{
			TrialID:    trial,
			WindSpeed:  cfg.Wind.Speed,
			Turbulence: cfg.Wind.Turbulence,
			Stable:     trialStable(result, mc.MinAltitude),
		})
	}
	return results, nil
}

func trialStable(result *sim.Result, minAltitude float64) bool {
	if len(result.Errors) > 0 {
		return false
	}
	for _, s := range result.Samples {
		if s.Time < 1 {
			continue
		}
		if s.State.Position.Y() < minAltitude {
			return false
		}
	}
	return true
}

// Stats counts stable and unstable trials.
func Stats(results []MonteCarloResult) (stable, unstable int) {
	for _, r := range results {
		if r.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
