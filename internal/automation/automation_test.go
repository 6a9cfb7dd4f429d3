package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/kitesim/internal/config"
)

const scenarioYAML = `name: regression
description: short flights across wind bands
steps:
  - name: calm hold
    preset: calm
    program: none
    duration: 2
  - name: breeze weave
    preset: breeze
    program: weave
    duration: 2
    turbulence: 0
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "regression" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Steps[1].Turbulence == nil || *sc.Steps[1].Turbulence != 0 {
		t.Error("explicit zero turbulence should be an override")
	}
	if sc.Steps[0].Turbulence != nil {
		t.Error("absent turbulence should stay nil")
	}
}

func TestLoadScenarioRejectsEmpty(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 step results, got %d", len(results))
	}
	for _, r := range results {
		if r.Result.StepsTaken == 0 {
			t.Errorf("step %q took no steps", r.Step.Name)
		}
		if len(r.Result.Metrics) == 0 {
			t.Errorf("step %q recorded no metrics", r.Step.Name)
		}
	}
}

func TestRunScenarioUnknownPreset(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{{Name: "bad", Preset: "hurricane"}}}
	if _, err := RunScenario(context.Background(), sc); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestMonteCarloDeterministic(t *testing.T) {
	base := config.GetPreset("breeze")
	base.Wind.Turbulence = 0

	mc := &MonteCarloConfig{
		Base:         base,
		WindJitter:   1.5,
		TurbJitter:   0.1,
		NumTrials:    4,
		Seed:         7,
		MinAltitude:  0.02,
		TrialSeconds: 2,
	}

	first, err := RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatalf("monte carlo: %v", err)
	}
	second, err := RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatalf("monte carlo repeat: %v", err)
	}

	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("expected 4 trials, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].WindSpeed != second[i].WindSpeed {
			t.Errorf("trial %d not reproducible: %f vs %f", i, first[i].WindSpeed, second[i].WindSpeed)
		}
	}

	stable, unstable := Stats(first)
	if stable+unstable != 4 {
		t.Errorf("stats should partition trials: %d + %d", stable, unstable)
	}
}
