package config

import "sort"

// Presets are named, ready-to-fly configurations. Each starts from
// Default so presets only state what they change.
var Presets = map[string]func() *Config{
	"calm": func() *Config {
		c := Default()
		c.Wind.Speed = 2.5
		c.Wind.Turbulence = 0
		return c
	},
	"breeze": func() *Config {
		c := Default()
		c.Wind.Speed = 5
		c.Wind.Turbulence = 0.15
		return c
	},
	"fresh": func() *Config {
		c := Default()
		c.Wind.Speed = 8
		c.Wind.Turbulence = 0.25
		return c
	},
	"gusty": func() *Config {
		c := Default()
		c.Wind.Speed = 7
		c.Wind.Turbulence = 0.8
		return c
	},
	"storm": func() *Config {
		c := Default()
		c.Wind.Speed = 14
		c.Wind.Turbulence = 0.5
		return c
	},
	"longlines": func() *Config {
		c := Default()
		c.Lines.Length = 30
		c.Wind.Speed = 6
		return c
	},
	"training": func() *Config {
		c := Default()
		c.Wind.Speed = 4
		c.Wind.Turbulence = 0.05
		c.Lines.Length = 10
		c.Bar.TurnRate = 1.6
		return c
	},
	"weave": func() *Config {
		c := Default()
		c.Wind.Speed = 7
		c.Sim.Program = "weave"
		c.Sim.Duration = 60
		return c
	},
}

// GetPreset returns a fresh Config for a preset name, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

// ListPresets returns the available preset names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
