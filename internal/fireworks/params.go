package fireworks

import "math"

const (
	DefaultParticles = 100
	DefaultSteps     = 100
	DefaultBoxSize   = 10.0
	DefaultSlowdown  = 0.8
	DefaultDt        = 0.1
	DefaultGravity   = 9.81
	DefaultBins      = 50
	DefaultSpeedMin  = 1.0
	DefaultSpeedMax  = 3.0
)

// Launch selects how launch angles are drawn.
type Launch string

const (
	// LaunchRandom draws every angle uniformly from [0, 2π).
	LaunchRandom Launch = "random"
	// LaunchEven spreads angles as 2π·i/n around the circle.
	LaunchEven Launch = "even"
)

// Mode selects the step rule.
type Mode string

const (
	// ModeBounded reflects particles off the box walls. Gravity is not
	// applied to the position update in this mode.
	ModeBounded Mode = "bounded"
	// ModeFree has no walls and subtracts ½·g·dt² from y every step.
	ModeFree Mode = "free"
)

// Params holds the immutable parameters of one simulation.
type Params struct {
	Particles  int
	Steps      int
	BoxSize    float64 // half-size: the box is [-BoxSize, BoxSize]²
	Slowdown   float64 // velocity fraction kept on a wall hit, in [0, 1]
	Dt         float64
	Gravity    float64
	BinsX      int
	BinsY      int
	SpeedMin   float64
	SpeedMax   float64
	Seed       int64
	Launch     Launch
	Mode       Mode
	FloorClamp bool // clamp y to the floor instead of letting it sink below
}

func DefaultParams() Params {
	return Params{
		Particles: DefaultParticles,
		Steps:     DefaultSteps,
		BoxSize:   DefaultBoxSize,
		Slowdown:  DefaultSlowdown,
		Dt:        DefaultDt,
		Gravity:   DefaultGravity,
		BinsX:     DefaultBins,
		BinsY:     DefaultBins,
		SpeedMin:  DefaultSpeedMin,
		SpeedMax:  DefaultSpeedMax,
		Launch:    LaunchRandom,
		Mode:      ModeBounded,
	}
}

// Box returns the bounding box described by the parameters.
func (p Params) Box() Box {
	return Box{XMin: -p.BoxSize, XMax: p.BoxSize, YMin: -p.BoxSize, YMax: p.BoxSize}
}

// Validate reports the first invalid parameter as a *ConfigError.
func (p Params) Validate() error {
	if p.Particles <= 0 {
		return configErr("particles", p.Particles, "must be positive")
	}
	if p.Steps <= 0 {
		return configErr("steps", p.Steps, "must be positive")
	}
	if !finite(p.BoxSize) || p.BoxSize <= 0 {
		return configErr("box size", p.BoxSize, "must be positive and finite")
	}
	if !finite(2 * p.BoxSize) {
		return configErr("box size", p.BoxSize, "box extent overflows")
	}
	if math.IsNaN(p.Slowdown) || p.Slowdown < 0 || p.Slowdown > 1 {
		return configErr("slowdown", p.Slowdown, "must be within [0, 1]")
	}
	if !finite(p.Dt) || p.Dt <= 0 {
		return configErr("dt", p.Dt, "must be positive and finite")
	}
	if !finite(p.Gravity) || p.Gravity < 0 {
		return configErr("gravity", p.Gravity, "must be non-negative and finite")
	}
	if p.BinsX <= 0 || p.BinsY <= 0 {
		return configErr("bins", [2]int{p.BinsX, p.BinsY}, "must be positive")
	}
	if !finite(p.SpeedMin) || p.SpeedMin < 0 {
		return configErr("speed min", p.SpeedMin, "must be non-negative and finite")
	}
	if !finite(p.SpeedMax) || p.SpeedMax < p.SpeedMin {
		return configErr("speed max", p.SpeedMax, "must be finite and not below speed min")
	}
	switch p.Launch {
	case LaunchRandom, LaunchEven:
	default:
		return configErr("launch", p.Launch, "unknown launch pattern")
	}
	switch p.Mode {
	case ModeBounded, ModeFree:
	default:
		return configErr("mode", p.Mode, "unknown mode")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
