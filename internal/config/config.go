package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fireworks/internal/fireworks"
)

// Config is the on-disk form of a run. Zero-valued fields left out of a
// file keep the defaults.
type Config struct {
	Particles  int     `yaml:"particles" toml:"particles"`
	Steps      int     `yaml:"steps" toml:"steps"`
	BoxSize    float64 `yaml:"box_size" toml:"box_size"`
	Slowdown   float64 `yaml:"slowdown" toml:"slowdown"`
	Dt         float64 `yaml:"dt" toml:"dt"`
	Gravity    float64 `yaml:"gravity" toml:"gravity"`
	Bins       int     `yaml:"bins" toml:"bins"`
	SpeedMin   float64 `yaml:"speed_min" toml:"speed_min"`
	SpeedMax   float64 `yaml:"speed_max" toml:"speed_max"`
	Seed       int64   `yaml:"seed" toml:"seed"`
	Launch     string  `yaml:"launch" toml:"launch"`
	Mode       string  `yaml:"mode" toml:"mode"`
	FloorClamp bool    `yaml:"floor_clamp" toml:"floor_clamp"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles: fireworks.DefaultParticles,
		Steps:     fireworks.DefaultSteps,
		BoxSize:   fireworks.DefaultBoxSize,
		Slowdown:  fireworks.DefaultSlowdown,
		Dt:        fireworks.DefaultDt,
		Gravity:   fireworks.DefaultGravity,
		Bins:      fireworks.DefaultBins,
		SpeedMin:  fireworks.DefaultSpeedMin,
		SpeedMax:  fireworks.DefaultSpeedMax,
		Launch:    string(fireworks.LaunchRandom),
		Mode:      string(fireworks.ModeBounded),
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over the defaults.
func Load(path string) (*Config, error) {
	return Overlay(path, DefaultConfig())
}

// Overlay reads a config file over a copy of base. Fields the file leaves
// out keep base's values.
func Overlay(path string, base *Config) (*Config, error) {
	cfg := base.Clone()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, ext)
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

// Params converts the configuration. The result is not validated; that
// happens when a simulation is built from it.
func (c *Config) Params() fireworks.Params {
	return fireworks.Params{
		Particles:  c.Particles,
		Steps:      c.Steps,
		BoxSize:    c.BoxSize,
		Slowdown:   c.Slowdown,
		Dt:         c.Dt,
		Gravity:    c.Gravity,
		BinsX:      c.Bins,
		BinsY:      c.Bins,
		SpeedMin:   c.SpeedMin,
		SpeedMax:   c.SpeedMax,
		Seed:       c.Seed,
		Launch:     fireworks.Launch(c.Launch),
		Mode:       fireworks.Mode(c.Mode),
		FloorClamp: c.FloorClamp,
	}
}

// Clone returns an independent copy, so presets are never mutated.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
