// Package config loads, saves and defaults the YAML configuration of
// the kite lab. Every physics constant lives here and is handed to
// component constructors explicitly; nothing reads tuning state from
// globals.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/kitesim/internal/aero"
	"github.com/san-kum/kitesim/internal/physics"
	"github.com/san-kum/kitesim/internal/sim"
	"github.com/san-kum/kitesim/internal/steering"
	"github.com/san-kum/kitesim/internal/wind"
)

type Config struct {
	Kite  KiteConfig  `yaml:"kite"`
	Wind  WindConfig  `yaml:"wind"`
	Lines LinesConfig `yaml:"lines"`
	Bar   BarConfig   `yaml:"bar"`
	Sim   SimConfig   `yaml:"sim"`
}

type KiteConfig struct {
	Mass             float64 `yaml:"mass"`
	Inertia          float64 `yaml:"inertia"`
	Span             float64 `yaml:"span"`
	Chord            float64 `yaml:"chord"`
	Dihedral         float64 `yaml:"dihedral"`
	KeelDepth        float64 `yaml:"keel_depth"`
	AirDensity       float64 `yaml:"air_density"`
	RecoveryAngleDeg float64 `yaml:"recovery_angle_deg"`
	StallAngleDeg    float64 `yaml:"stall_angle_deg"`
	StallFloor       float64 `yaml:"stall_floor"`
	ShearCoeff       float64 `yaml:"shear_coeff"`
}

type WindConfig struct {
	Speed        float64 `yaml:"speed"`
	DirectionDeg float64 `yaml:"direction_deg"`
	Turbulence   float64 `yaml:"turbulence"`
}

type LinesConfig struct {
	Length      float64 `yaml:"length"`
	Compliance  float64 `yaml:"compliance"`
	Tolerance   float64 `yaml:"tolerance"`
	SteerFactor float64 `yaml:"steer_factor"`
}

type BarConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	MaxAngleDeg float64 `yaml:"max_angle_deg"`
	TurnRate    float64 `yaml:"turn_rate"`
	ReturnRate  float64 `yaml:"return_rate"`
}

type SimConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	MaxDt    float64 `yaml:"max_dt"`
	Gravity  float64 `yaml:"gravity"`
	Program  string  `yaml:"program"`
}

func Default() *Config {
	return &Config{
		Kite: KiteConfig{
			Mass:             0.35,
			Inertia:          0.08,
			Span:             2.4,
			Chord:            1.2,
			Dihedral:         0.18,
			KeelDepth:        0.35,
			AirDensity:       1.225,
			RecoveryAngleDeg: 25,
			StallAngleDeg:    50,
			StallFloor:       0.4,
			ShearCoeff:       0.02,
		},
		Wind:  WindConfig{Speed: 5, DirectionDeg: 0, Turbulence: 0.1},
		Lines: LinesConfig{Length: 15, Compliance: 2e-4, Tolerance: 0.02, SteerFactor: 0.35},
		Bar:   BarConfig{Width: 0.6, Height: 1.2, MaxAngleDeg: 52, TurnRate: 2.4, ReturnRate: 3.2},
		Sim:   SimConfig{Dt: 1.0 / 60, Duration: 30, MaxDt: 1.0 / 30, Gravity: 9.81, Program: "none"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the physics cannot run with.
func (c *Config) Validate() error {
	if c.Kite.Mass <= 0 {
		return fmt.Errorf("kite mass must be positive, got %f", c.Kite.Mass)
	}
	if c.Kite.Inertia <= 0 {
		return fmt.Errorf("kite inertia must be positive, got %f", c.Kite.Inertia)
	}
	if c.Lines.Length <= 0 {
		return fmt.Errorf("line length must be positive, got %f", c.Lines.Length)
	}
	if c.Sim.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Sim.Dt)
	}
	if c.Kite.StallAngleDeg <= c.Kite.RecoveryAngleDeg {
		return fmt.Errorf("stall angle (%f) must exceed recovery angle (%f)",
			c.Kite.StallAngleDeg, c.Kite.RecoveryAngleDeg)
	}
	if c.Wind.Turbulence < 0 || c.Wind.Turbulence > 1 {
		return fmt.Errorf("turbulence must be in [0,1], got %f", c.Wind.Turbulence)
	}
	return nil
}

const degToRad = math.Pi / 180

// SimConfigFor maps the YAML shape onto the component parameter
// structs the simulation is built from.
func (c *Config) SimConfigFor() sim.Config {
	out := sim.DefaultConfig()

	out.Kite = aero.DeltaParams{
		Span:      c.Kite.Span,
		Chord:     c.Kite.Chord,
		Dihedral:  c.Kite.Dihedral,
		KeelDepth: c.Kite.KeelDepth,
	}
	out.Aero = aero.ModelParams{
		AirDensity:    c.Kite.AirDensity,
		RecoveryAngle: c.Kite.RecoveryAngleDeg * degToRad,
		StallAngle:    c.Kite.StallAngleDeg * degToRad,
		StallFloor:    c.Kite.StallFloor,
		ShearCoeff:    c.Kite.ShearCoeff,
	}
	out.Body.Mass = c.Kite.Mass
	out.Body.Inertia = c.Kite.Inertia
	out.Lines = physics.LineConfig{
		BaseLength:  c.Lines.Length,
		Compliance:  c.Lines.Compliance,
		Tolerance:   c.Lines.Tolerance,
		SteerFactor: c.Lines.SteerFactor,
		MinLength:   physics.DefaultLineConfig().MinLength,
	}
	out.Bar = steering.Params{
		Width:      c.Bar.Width,
		Position:   mgl64.Vec3{0, c.Bar.Height, 0},
		MaxAngle:   c.Bar.MaxAngleDeg * degToRad,
		TurnRate:   c.Bar.TurnRate,
		ReturnRate: c.Bar.ReturnRate,
	}
	out.Wind = wind.Params{
		Speed:      c.Wind.Speed,
		Direction:  c.Wind.DirectionDeg * degToRad,
		Turbulence: c.Wind.Turbulence,
	}
	out.Gravity = c.Sim.Gravity
	out.MaxDt = c.Sim.MaxDt
	return out
}

// RunConfigFor maps the sim section onto the headless runner config.
func (c *Config) RunConfigFor() sim.RunConfig {
	return sim.RunConfig{Dt: c.Sim.Dt, Duration: c.Sim.Duration, ValidateState: true}
}
