package fireworks

import (
	"context"
	"math/rand"
)

// Frame is the read-only view of one completed step.
type Frame struct {
	Step        int // 1-based index of the step that produced this frame
	Time        float64
	X, Y        []float64
	VX, VY      []float64
	InBox       int // positions folded into the density map this step
	CollisionsX int
	CollisionsY int

	density DensitySnapshot
}

// Density returns the distribution map as it stood after this frame's
// step. Later steps do not change it.
func (f Frame) Density() DensitySnapshot {
	return f.density
}

// Metric folds frames into a single number.
type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

// Result is the record of a Run.
type Result struct {
	Times       []float64
	X, Y        [][]float64
	InBox       []int
	CollisionsX []int
	CollisionsY []int
	Density     DensitySnapshot
	Metrics     map[string]float64
	StepsTaken  int
}

// Simulation owns one ensemble and its distribution map and is their only
// sequencer: each step moves the ensemble, then accumulates exactly that
// state.
type Simulation struct {
	params    Params
	ensemble  *Ensemble
	density   *DensityMap
	step      int
	metrics   []Metric
	observers []Observer
}

// New validates p and builds the ensemble and density map. The ensemble's
// launch velocities come from a generator seeded with p.Seed.
func New(p Params) (*Simulation, error) {
	e, err := NewEnsemble(p, rand.New(rand.NewSource(p.Seed)))
	if err != nil {
		return nil, err
	}
	return NewWithEnsemble(p, e)
}

// NewWithEnsemble wraps an existing ensemble. The density map covers the
// same box as the ensemble.
func NewWithEnsemble(p Params, e *Ensemble) (*Simulation, error) {
	p.Particles = e.Len()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d, err := NewDensityMap(e.Box(), p.BinsX, p.BinsY)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		params:    p,
		ensemble:  e,
		density:   d,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) Params() Params { return s.params }

// StepCount is the number of steps taken so far.
func (s *Simulation) StepCount() int { return s.step }

// Positions returns copies of the current particle positions.
func (s *Simulation) Positions() (xs, ys []float64) { return s.ensemble.Positions() }

// Density returns a copy of the current distribution map.
func (s *Simulation) Density() DensitySnapshot { return s.density.Snapshot() }

// Step advances the ensemble once and accumulates the new positions.
func (s *Simulation) Step() Frame {
	stats := s.ensemble.Step()
	s.step++

	f := Frame{
		Step:        s.step,
		Time:        float64(s.step) * s.params.Dt,
		CollisionsX: stats.CollisionsX,
		CollisionsY: stats.CollisionsY,
	}
	f.X, f.Y = s.ensemble.Positions()
	f.VX, f.VY = s.ensemble.Velocities()
	f.InBox = s.density.Accumulate(f.X, f.Y)
	f.density = s.density.Snapshot()

	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, o := range s.observers {
		o.OnStep(f)
	}
	return f
}

// RunWithCallback takes up to Params.Steps steps, handing each frame to fn.
// It stops early when fn returns false or ctx is done; cancellation is only
// observed between steps.
func (s *Simulation) RunWithCallback(ctx context.Context, fn func(Frame) bool) error {
	for i := 0; i < s.params.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !fn(s.Step()) {
			return nil
		}
	}
	return nil
}

// Run takes Params.Steps steps and records every frame. On cancellation
// the partial result is returned together with ctx.Err().
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	steps := s.params.Steps
	result := &Result{
		Times:       make([]float64, 0, steps),
		X:           make([][]float64, 0, steps),
		Y:           make([][]float64, 0, steps),
		InBox:       make([]int, 0, steps),
		CollisionsX: make([]int, 0, steps),
		CollisionsY: make([]int, 0, steps),
		Metrics:     make(map[string]float64),
	}

	err := s.RunWithCallback(ctx, func(f Frame) bool {
		result.Times = append(result.Times, f.Time)
		result.X = append(result.X, f.X)
		result.Y = append(result.Y, f.Y)
		result.InBox = append(result.InBox, f.InBox)
		result.CollisionsX = append(result.CollisionsX, f.CollisionsX)
		result.CollisionsY = append(result.CollisionsY, f.CollisionsY)
		result.StepsTaken++
		return true
	})

	result.Density = s.density.Snapshot()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}
