package fireworks

import (
	"math"
	"math/rand"
)

// ParticleState is an explicit initial state, one particle per index.
type ParticleState struct {
	X, Y, VX, VY []float64
}

// StepStats counts the collision responses applied during one step.
type StepStats struct {
	CollisionsX int
	CollisionsY int
}

// Ensemble owns the position and velocity arrays of every particle.
type Ensemble struct {
	x, y, vx, vy []float64
	box          Box
	slowdown     float64
	dt           float64
	gravity      float64
	mode         Mode
	floorClamp   bool
}

// NewEnsemble places p.Particles particles at the origin and draws their
// launch velocities from rng.
func NewEnsemble(p Params, rng *rand.Rand) (*Ensemble, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.Particles
	e := newEnsemble(p, n)

	for i := 0; i < n; i++ {
		var angle float64
		switch p.Launch {
		case LaunchEven:
			angle = 2 * math.Pi * float64(i) / float64(n)
		default:
			angle = rng.Float64() * 2 * math.Pi
		}
		speed := p.SpeedMin + rng.Float64()*(p.SpeedMax-p.SpeedMin)
		sin, cos := math.Sincos(angle)
		e.vx[i] = speed * cos
		e.vy[i] = speed * sin
	}
	return e, nil
}

// EnsembleFromState builds an ensemble from explicit positions and
// velocities. p.Particles is ignored in favour of the state length.
func EnsembleFromState(p Params, s ParticleState) (*Ensemble, error) {
	n := len(s.X)
	if n == 0 {
		return nil, configErr("particles", n, "must be positive")
	}
	if len(s.Y) != n || len(s.VX) != n || len(s.VY) != n {
		return nil, configErr("state", [4]int{len(s.X), len(s.Y), len(s.VX), len(s.VY)}, "array lengths differ")
	}
	p.Particles = n
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := newEnsemble(p, n)
	copy(e.x, s.X)
	copy(e.y, s.Y)
	copy(e.vx, s.VX)
	copy(e.vy, s.VY)
	return e, nil
}

func newEnsemble(p Params, n int) *Ensemble {
	return &Ensemble{
		x:          make([]float64, n),
		y:          make([]float64, n),
		vx:         make([]float64, n),
		vy:         make([]float64, n),
		box:        p.Box(),
		slowdown:   p.Slowdown,
		dt:         p.Dt,
		gravity:    p.Gravity,
		mode:       p.Mode,
		floorClamp: p.FloorClamp,
	}
}

// Step advances every particle by one time step. Collisions are detected on
// the moved position, so a particle may sit past a wall for one step before
// its reversed velocity brings it back.
func (e *Ensemble) Step() StepStats {
	var stats StepStats
	dt := e.dt
	drop := 0.0
	if e.mode == ModeFree {
		drop = 0.5 * e.gravity * dt * dt
	}

	for i := range e.x {
		e.x[i] += e.vx[i] * dt
		e.y[i] += e.vy[i]*dt - drop

		if e.floorClamp && e.y[i] < e.box.YMin {
			e.y[i] = e.box.YMin
		}
		if e.mode == ModeFree {
			continue
		}

		if e.x[i] <= e.box.XMin || e.x[i] >= e.box.XMax {
			e.vx[i] *= -e.slowdown
			stats.CollisionsX++
		}
		if e.y[i] <= e.box.YMin || e.y[i] >= e.box.YMax {
			e.vy[i] *= -e.slowdown
			stats.CollisionsY++
		}
	}
	return stats
}

func (e *Ensemble) Len() int { return len(e.x) }

func (e *Ensemble) Box() Box { return e.box }

// Positions returns copies of the x and y arrays.
func (e *Ensemble) Positions() (xs, ys []float64) {
	return cloneFloats(e.x), cloneFloats(e.y)
}

// Velocities returns copies of the vx and vy arrays.
func (e *Ensemble) Velocities() (vxs, vys []float64) {
	return cloneFloats(e.vx), cloneFloats(e.vy)
}

func cloneFloats(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	return c
}
