package config

import "sort"

func preset(edit func(c *Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

var Presets = map[string]*Config{
	"classic": DefaultConfig(),
	"elastic": preset(func(c *Config) {
		c.Slowdown = 1.0
		c.Steps = 300
	}),
	"absorbing": preset(func(c *Config) {
		c.Slowdown = 0.3
		c.Steps = 300
	}),
	"variant-b": preset(func(c *Config) {
		c.SpeedMin = 0
		c.Launch = "even"
		c.Slowdown = 1.0
	}),
	"freefall": preset(func(c *Config) {
		c.Mode = "free"
		c.SpeedMin = 0
		c.Launch = "even"
	}),
	"floor": preset(func(c *Config) {
		c.FloorClamp = true
		c.Steps = 300
	}),
	"dense": preset(func(c *Config) {
		c.Particles = 1000
		c.Steps = 500
		c.Bins = 80
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
