package metrics

import "github.com/san-kum/fireworks/internal/fireworks"

// InBox is the mean fraction of particles that landed inside the box per
// step. Values below 1 come from particles caught past a wall for a step.
type InBox struct {
	name    string
	sum     float64
	samples int
}

func NewInBox() *InBox {
	return &InBox{name: "in_box"}
}

func (m *InBox) Name() string { return m.name }

func (m *InBox) Observe(f fireworks.Frame) {
	if len(f.X) > 0 {
		m.sum += float64(f.InBox) / float64(len(f.X))
	}
	m.samples++
}

func (m *InBox) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return m.sum / float64(m.samples)
}

func (m *InBox) Reset() {
	m.sum = 0
	m.samples = 0
}

// Collisions counts collision responses over all steps, both axes.
type Collisions struct {
	name  string
	total int
}

func NewCollisions() *Collisions {
	return &Collisions{name: "collisions"}
}

func (c *Collisions) Name() string { return c.name }

func (c *Collisions) Observe(f fireworks.Frame) {
	c.total += f.CollisionsX + f.CollisionsY
}

func (c *Collisions) Value() float64 { return float64(c.total) }

func (c *Collisions) Reset() { c.total = 0 }

// Default returns a fresh set of the standard run metrics.
func Default() []fireworks.Metric {
	return []fireworks.Metric{
		NewInBox(),
		NewCollisions(),
		NewKineticEnergy(),
		NewSpread(),
	}
}
